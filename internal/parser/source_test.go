package parser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFromSources_MergesAndDedups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("p://x?server=1.2.3.4&port=443&secret=abc\np://x?server=9.9.9.9&port=80&secret=xyz\n"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "proxies.txt")
	// Same first line as the URL source on purpose.
	content := "p://x?server=1.2.3.4&port=443&secret=abc\np://x?server=5.6.7.8&port=1080&secret=def\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	records, err := FromSources(context.Background(), []Source{
		{File: path},
		{URL: srv.URL},
	}, srv.Client())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("want 3 deduped records, got %d: %#v", len(records), records)
	}
}

func TestFromSources_NoRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("not a proxy\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := FromSources(context.Background(), []Source{{File: path}}, nil)
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("want ErrNoRecords, got %v", err)
	}
}

func TestFromSources_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := FromSources(context.Background(), []Source{{URL: srv.URL}}, srv.Client())
	if err == nil {
		t.Fatalf("expected error for non-2xx source")
	}
}
