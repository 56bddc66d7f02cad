package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// buildZip produces an archive with the given entries. Map iteration order
// does not matter to the assertions, which look files up by name.
func buildZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func newTestRetriever() *Retriever {
	return NewRetriever(NewHTTPClient("test", 5*time.Second), nil)
}

func TestRetrieveStagesEntries(t *testing.T) {
	dbContent := bytes.Repeat([]byte("ipeds-data-"), 20000) // ~220 KB, several copy chunks
	readme := []byte("see documentation")

	archive := buildZip(t, map[string][]byte{
		"HD2022/hd2022.mdb": dbContent,
		"readme.txt":        readme,
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	staging := filepath.Join(t.TempDir(), "staging")
	staged, err := newTestRetriever().Retrieve(context.Background(), server.URL+"/hd2022.zip", staging)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(staged) != 2 {
		t.Fatalf("expected 2 staged files, got %d", len(staged))
	}

	byName := make(map[string]StagedFile)
	for _, f := range staged {
		byName[f.Name] = f
	}

	// Nested paths are flattened to the basename
	db, ok := byName["hd2022.mdb"]
	if !ok {
		t.Fatalf("expected staged file hd2022.mdb, got %v", staged)
	}
	if db.Size != int64(len(dbContent)) {
		t.Errorf("expected size %d, got %d", len(dbContent), db.Size)
	}

	got, err := os.ReadFile(db.Path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if !bytes.Equal(got, dbContent) {
		t.Error("staged content does not round-trip to the original bytes")
	}

	if _, ok := byName["readme.txt"]; !ok {
		t.Errorf("expected staged file readme.txt, got %v", staged)
	}
}

func TestRetrieveSkipsDirectoryEntries(t *testing.T) {
	archive := buildZip(t, map[string][]byte{
		"HD2022/":           nil,
		"HD2022/hd2022.mdb": []byte("data"),
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	staged, err := newTestRetriever().Retrieve(context.Background(), server.URL, filepath.Join(t.TempDir(), "staging"))
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if len(staged) != 1 || staged[0].Name != "hd2022.mdb" {
		t.Errorf("expected only hd2022.mdb staged, got %v", staged)
	}
}

func TestRetrieveCreatesStagingDir(t *testing.T) {
	archive := buildZip(t, map[string][]byte{"a.mdb": []byte("x")})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	staging := filepath.Join(t.TempDir(), "deep", "nested", "staging")
	if _, err := newTestRetriever().Retrieve(context.Background(), server.URL, staging); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if _, err := os.Stat(staging); err != nil {
		t.Errorf("staging directory was not created: %v", err)
	}
}

func TestRetrieveNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestRetriever().Retrieve(context.Background(), server.URL, t.TempDir())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}

	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Errorf("expected RetrievalError, got %T: %v", err, err)
	}
}

func TestRetrieveCorruptArchive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not a zip archive"))
	}))
	defer server.Close()

	_, err := newTestRetriever().Retrieve(context.Background(), server.URL, t.TempDir())
	if err == nil {
		t.Fatal("expected error for corrupt archive")
	}

	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Errorf("expected RetrievalError, got %T: %v", err, err)
	}
}

func TestRetrieveHTMLErrorPageFails(t *testing.T) {
	// A broken catalog link can serve an error page with status 200; that
	// must fail the archive, not succeed with zero staged files.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>archive not available</body></html>"))
	}))
	defer server.Close()

	_, err := newTestRetriever().Retrieve(context.Background(), server.URL, t.TempDir())
	if err == nil {
		t.Fatal("expected error for HTML body")
	}

	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Errorf("expected RetrievalError, got %T: %v", err, err)
	}
}

func TestRetrieveEmptyArchive(t *testing.T) {
	archive := buildZip(t, nil) // valid archive, no entries

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	staged, err := newTestRetriever().Retrieve(context.Background(), server.URL, t.TempDir())
	if err != nil {
		t.Fatalf("an empty archive is not an error: %v", err)
	}
	if len(staged) != 0 {
		t.Errorf("expected no staged files, got %v", staged)
	}
}

func TestRetrieveConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	_, err := newTestRetriever().Retrieve(context.Background(), server.URL, t.TempDir())
	if err == nil {
		t.Fatal("expected error for refused connection")
	}

	var re *RetrievalError
	if !errors.As(err, &re) {
		t.Errorf("expected RetrievalError, got %T: %v", err, err)
	}
}
