package fetch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/krolaw/zipstream"
)

// copyBufSize is the chunk size used when copying decompressed entries to disk.
const copyBufSize = 64 * 1024

// zipMagic prefixes every zip signature: local file header (PK\x03\x04) and
// the end-of-central-directory record of an empty archive (PK\x05\x06).
var zipMagic = []byte("PK")

// StagedFile describes one archive entry written to the staging directory.
type StagedFile struct {
	Name string // basename inside the staging directory
	Path string
	Size int64
}

// Retriever downloads archives and unpacks them into a staging directory.
// The response body is fed through an incremental zip decoder, so neither a
// whole archive nor a whole entry is ever held in memory.
type Retriever struct {
	client  *HTTPClient
	limiter *RateLimiter
}

// NewRetriever creates a new retriever. The limiter is optional; nil
// disables request pacing.
func NewRetriever(client *HTTPClient, limiter *RateLimiter) *Retriever {
	return &Retriever{
		client:  client,
		limiter: limiter,
	}
}

// Retrieve downloads one archive and writes each contained file to
// stagingDir, creating it if needed. Nested paths inside the archive are
// flattened to their basename; when two archives carry the same entry name
// the last writer wins. On any failure the archive's partially written files
// are left behind and the whole archive is reported failed.
func (r *Retriever) Retrieve(ctx context.Context, archiveURL, stagingDir string) ([]StagedFile, error) {
	if err := os.MkdirAll(stagingDir, 0750); err != nil {
		return nil, &RetrievalError{URL: archiveURL, Err: err}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx, archiveURL); err != nil {
			return nil, &RetrievalError{URL: archiveURL, Err: err}
		}
	}

	slog.Info("downloading archive", "url", archiveURL, "staging", stagingDir)

	resp, err := r.client.Get(ctx, archiveURL)
	if err != nil {
		return nil, &RetrievalError{URL: archiveURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RetrievalError{URL: archiveURL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	// The stream decoder scans for entry signatures and reports garbage as
	// an empty archive, so a body that is not zip data at all (a 200 error
	// page, say) must be rejected before decoding starts.
	br := bufio.NewReader(resp.Body)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, &RetrievalError{URL: archiveURL, Err: fmt.Errorf("reading archive header: %w", err)}
	}
	if !bytes.HasPrefix(magic, zipMagic) {
		return nil, &RetrievalError{URL: archiveURL, Err: fmt.Errorf("response body is not a zip archive")}
	}

	var staged []StagedFile
	buf := make([]byte, copyBufSize)
	zr := zipstream.NewReader(br)

	for {
		hdr, err := zr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &RetrievalError{URL: archiveURL, Err: fmt.Errorf("decoding archive: %w", err)}
		}

		// Directory entries and extension-less names are not data files
		if filepath.Ext(hdr.Name) == "" {
			continue
		}

		name := filepath.Base(hdr.Name)
		path := filepath.Join(stagingDir, name)

		size, err := writeEntry(path, zr, buf)
		if err != nil {
			return nil, &RetrievalError{URL: archiveURL, Err: err}
		}

		slog.Info("staged file", "file", name, "size", humanize.Bytes(uint64(size)))
		staged = append(staged, StagedFile{Name: name, Path: path, Size: size})
	}

	return staged, nil
}

// writeEntry streams one decompressed entry to disk in fixed-size chunks.
func writeEntry(path string, src io.Reader, buf []byte) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := io.CopyBuffer(f, src, buf)
	if err != nil {
		_ = f.Close()
		return n, fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close %s: %w", path, err)
	}

	return n, nil
}
