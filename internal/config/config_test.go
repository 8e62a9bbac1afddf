package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("TTLHours = %d, want 24", cfg.Cache.TTLHours)
	}
	if cfg.Limits.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d, want 10", cfg.Limits.MaxUploadMB)
	}
	if cfg.Transcription.URL != "" {
		t.Errorf("URL = %q, want empty", cfg.Transcription.URL)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	t.Setenv("VIDEOGEN_CONFIG", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
transcription:
  url: http://localhost:9000
cache:
  ttl_hours: 48
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Transcription.URL != "http://localhost:9000" {
		t.Errorf("URL = %q", cfg.Transcription.URL)
	}
	if cfg.Cache.TTLHours != 48 {
		t.Errorf("TTLHours = %d, want 48", cfg.Cache.TTLHours)
	}
	// Unset keys keep their defaults.
	if cfg.Limits.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d, want default 10", cfg.Limits.MaxUploadMB)
	}
	if cfg.Cache.DBPath != Default().Cache.DBPath {
		t.Errorf("DBPath = %q, want default", cfg.Cache.DBPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("limits:\n  max_upload_mb: 50\n"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("VIDEOGEN_CONFIG", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Limits.MaxUploadMB != 50 {
		t.Errorf("MaxUploadMB = %d, want 50", cfg.Limits.MaxUploadMB)
	}
}

func TestLoadSanitizesNonPositiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "cache:\n  ttl_hours: -1\nlimits:\n  max_upload_mb: 0\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("TTLHours = %d, want 24", cfg.Cache.TTLHours)
	}
	if cfg.Limits.MaxUploadMB != 10 {
		t.Errorf("MaxUploadMB = %d, want 10", cfg.Limits.MaxUploadMB)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("cache: [not: a: map"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("want error for malformed yaml")
	}
}
