package server

import (
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Save("doc1", []byte("payload")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := store.Load("doc1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("got %q", data)
	}

	missing, err := store.Load("nope")
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing doc, got %q", missing)
	}
}

func TestStoreOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs.db")
	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Save("doc", []byte("v1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save("doc", []byte("v2")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := store.Load("doc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "v2" {
		t.Fatalf("got %q", data)
	}
}
