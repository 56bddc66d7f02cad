// Package pipeline sequences the harvest: catalog discovery, concurrent
// archive retrieval into the staging directory, and conversion of the staged
// legacy database files.
package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mdbharvest/internal/catalog"
	"mdbharvest/internal/config"
	"mdbharvest/internal/convert"
	"mdbharvest/internal/fetch"
	"mdbharvest/internal/mdb"
	"mdbharvest/internal/storage"
)

// Pipeline drives one harvest run.
type Pipeline struct {
	cfg       *config.Config
	client    *fetch.HTTPClient
	locator   *catalog.Locator
	retriever *fetch.Retriever

	// checkTools is swapped in tests
	checkTools func() error
}

// New wires a pipeline from configuration.
func New(cfg *config.Config) *Pipeline {
	client := fetch.NewHTTPClient(cfg.UserAgent, cfg.RequestTimeout)

	var limiter *fetch.RateLimiter
	if cfg.RequestDelay > 0 {
		limiter = fetch.NewRateLimiter(time.Duration(cfg.RequestDelay * float64(time.Second)))
	}

	return &Pipeline{
		cfg:        cfg,
		client:     client,
		locator:    catalog.NewLocator(client, cfg.LinkSelector),
		retriever:  fetch.NewRetriever(client, limiter),
		checkTools: mdb.CheckTools,
	}
}

// Run executes the full pipeline. Per-archive and per-file failures are
// logged and reported but do not fail the run; only fatal errors (catalog
// unreachable, toolkit missing, nothing to convert) return non-nil.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.client.Close()

	staging := p.cfg.StagingDir()
	if _, err := os.Stat(staging); os.IsNotExist(err) {
		// A fresh run needs the toolkit eventually; fail before downloading
		// gigabytes if it is missing.
		if err := p.checkTools(); err != nil {
			return &convert.PreconditionError{Reason: "external toolkit unavailable", Err: err}
		}

		if err := p.retrieveAll(ctx, staging); err != nil {
			return err
		}
	} else {
		slog.Warn("staging directory already exists, skipping retrieval", "staging", staging)
	}

	files, err := p.enumerate(staging)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no legacy database files found under %s", staging)
	}

	store, err := storage.NewStore(p.cfg.ConvertedDir())
	if err != nil {
		return err
	}

	orch := convert.NewOrchestrator(store, p.cfg.Concurrency, func(file string) convert.Extractor {
		return mdb.NewToolkit(file, p.cfg.DateFormat)
	}, p.checkTools)

	report, err := orch.ConvertAll(ctx, files)
	if err != nil {
		return err
	}

	failed := report.Failed()
	slog.Info("conversion finished", "converted", report.Converted(), "failed", len(failed))
	for _, res := range failed {
		slog.Warn("file failed", "file", res.File, "error", res.Err)
	}

	return nil
}

type archiveResult struct {
	url   string
	files []fetch.StagedFile
	err   error
}

// retrieveAll discovers archives and downloads them concurrently, one task
// per archive. A failed archive is logged and dropped; it never cancels its
// siblings.
func (p *Pipeline) retrieveAll(ctx context.Context, staging string) error {
	disc, err := p.locator.Discover(ctx, p.cfg.CatalogURL)
	if err != nil {
		return err
	}
	slog.Info("discovered archives", "count", len(disc.Archives), "skipped_links", disc.Skipped)

	results := make(chan archiveResult, len(disc.Archives))
	var wg sync.WaitGroup

	for _, archive := range disc.Archives {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			files, err := p.retriever.Retrieve(ctx, url, staging)
			results <- archiveResult{url: url, files: files, err: err}
		}(archive.URL)
	}

	wg.Wait()
	close(results)

	var fetched, failed int
	for res := range results {
		if res.err != nil {
			failed++
			slog.Error("archive failed", "url", res.url, "error", res.err)
			continue
		}
		fetched++
		slog.Debug("archive retrieved", "url", res.url, "files", len(res.files))
	}

	slog.Info("retrieval finished", "archives", fetched, "failed", failed)
	return nil
}

// enumerate walks the staging directory for files whose extension marks them
// as convertible. A missing directory is an empty enumeration, so a run that
// discovered zero archives fails on the empty input set, not on the walk.
func (p *Pipeline) enumerate(staging string) ([]string, error) {
	if _, err := os.Stat(staging); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string

	err := filepath.WalkDir(staging, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		for _, want := range p.cfg.Extensions {
			if ext == strings.ToLower(want) {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan staging directory: %w", err)
	}

	return files, nil
}
