package kernel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConnectionInfoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conn.json")
	if err := os.WriteFile(path, []byte(`{"request_port": 5555, "result_port": 5556}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	config, err := LoadConnectionInfo(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Transport != "tcp" || config.IP != "127.0.0.1" {
		t.Fatalf("defaults not applied: %#v", config)
	}
	if config.RequestPort != 5555 || config.ResultPort != 5556 {
		t.Fatalf("ports lost: %#v", config)
	}
}

func TestLoadConnectionInfoErrors(t *testing.T) {
	if _, err := LoadConnectionInfo(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConnectionInfo(path); err == nil {
		t.Fatalf("expected error for bad json")
	}
}
