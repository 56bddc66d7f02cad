// Package convert turns staged legacy database files into portable SQLite
// databases. It runs a bounded pool of workers, each extracting schema and
// rows through the toolkit and applying one atomic script per file.
package convert

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"mdbharvest/internal/storage"
)

// FileResult is the outcome of converting one input file.
type FileResult struct {
	File     string
	Output   string // path of the converted database, empty on failure
	Tables   int
	Duration time.Duration
	Err      error
}

// Report collects per-file outcomes for one batch. Result order is pool
// drain order, not submission order.
type Report struct {
	Results []FileResult
}

// Converted returns the number of successful conversions.
func (r *Report) Converted() int {
	n := 0
	for _, res := range r.Results {
		if res.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns the results of failed conversions.
func (r *Report) Failed() []FileResult {
	var failed []FileResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Orchestrator converts files on a fixed-size worker pool. Unlike archive
// retrieval, conversion is bound by external tool processes, so it is
// capacity-limited.
type Orchestrator struct {
	store        *storage.Store
	parallelism  int
	newExtractor ExtractorFactory
	preflight    func() error
}

// NewOrchestrator creates an orchestrator writing converted databases to the
// given store. parallelism <= 0 means one worker per CPU. preflight is run
// once before any worker starts; it is optional.
func NewOrchestrator(store *storage.Store, parallelism int, factory ExtractorFactory, preflight func() error) *Orchestrator {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	return &Orchestrator{
		store:        store,
		parallelism:  parallelism,
		newExtractor: factory,
		preflight:    preflight,
	}
}

// ConvertAll converts every input file, recording a per-file outcome. A
// failed file never aborts its siblings or already-finished conversions.
// Precondition failures (empty input set, missing toolkit) abort the whole
// batch before any work begins.
func (o *Orchestrator) ConvertAll(ctx context.Context, files []string) (*Report, error) {
	if len(files) == 0 {
		return nil, &PreconditionError{Reason: "no legacy database files to convert"}
	}

	if o.preflight != nil {
		if err := o.preflight(); err != nil {
			return nil, &PreconditionError{Reason: "external toolkit unavailable", Err: err}
		}
	}

	workers := o.parallelism
	if workers > len(files) {
		workers = len(files)
	}

	slog.Info("starting conversion", "files", len(files), "workers", workers)

	jobs := make(chan string)
	results := make(chan FileResult)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for file := range jobs {
				results <- o.convertFile(ctx, id, file)
			}
		}(i)
	}

	go func() {
		defer close(jobs)
		for _, file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	for res := range results {
		if res.Err != nil {
			slog.Error("conversion failed", "file", res.File, "error", res.Err)
		} else {
			slog.Info("converted", "file", res.File, "output", res.Output, "tables", res.Tables, "duration", res.Duration)
		}
		report.Results = append(report.Results, res)
	}

	return report, nil
}

// convertFile converts one file: list tables, dump schema, export each table
// in listed order, and apply the assembled script as one atomic unit.
func (o *Orchestrator) convertFile(ctx context.Context, id int, file string) FileResult {
	start := time.Now()
	res := FileResult{File: file}

	ex := o.newExtractor(file)

	tables, err := ex.ListTables(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	schema, err := ex.DumpSchema(ctx)
	if err != nil {
		res.Err = err
		return res
	}

	script, err := Assemble(ctx, schema, tables, ex.ExportTable)
	if err != nil {
		res.Err = err
		return res
	}

	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	slog.Info("applying conversion", "worker_id", id, "file", file, "script_size", humanize.Bytes(uint64(len(script))))

	output, err := o.store.Apply(base, script)
	if err != nil {
		res.Err = err
		return res
	}

	res.Output = output
	res.Tables = len(tables)
	res.Duration = time.Since(start)
	return res
}
