package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 0 {
		t.Errorf("expected default workers 0, got %d", cfg.Workers)
	}
	if cfg.MinLen != 2 {
		t.Errorf("expected default min_len 2, got %d", cfg.MinLen)
	}
	if cfg.Mask != "" {
		t.Errorf("expected empty default mask, got %q", cfg.Mask)
	}
	if cfg.Recursive {
		t.Error("expected recursive false by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.IndexPath != "" {
		t.Errorf("expected empty default index path, got %q", cfg.IndexPath)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file should not error: %v", err)
	}
	if cfg.MinLen != 2 || cfg.LogLevel != "info" {
		t.Errorf("missing config file should yield defaults, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `workers: 4
min_len: 3
mask: "*.exr"
recursive: true
log_level: debug
index_path: /tmp/scans.db
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected workers 4, got %d", cfg.Workers)
	}
	if cfg.MinLen != 3 {
		t.Errorf("expected min_len 3, got %d", cfg.MinLen)
	}
	if cfg.Mask != "*.exr" {
		t.Errorf("expected mask *.exr, got %q", cfg.Mask)
	}
	if !cfg.Recursive {
		t.Error("expected recursive true")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.IndexPath != "/tmp/scans.db" {
		t.Errorf("expected index path /tmp/scans.db, got %q", cfg.IndexPath)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("expected workers 2, got %d", cfg.Workers)
	}
	if cfg.MinLen != 2 {
		t.Errorf("unset fields should keep defaults, got min_len %d", cfg.MinLen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unset fields should keep defaults, got log_level %q", cfg.LogLevel)
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: [not a number\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".seqscan")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte("min_len: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFromDir(dir)
	if err != nil {
		t.Fatalf("LoadConfigFromDir failed: %v", err)
	}
	if cfg.MinLen != 5 {
		t.Errorf("expected min_len 5, got %d", cfg.MinLen)
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mask = "*.png"

	workers := 8
	recursive := true
	cfg.MergeWithFlags(&workers, nil, nil, &recursive, nil)

	if cfg.Workers != 8 {
		t.Errorf("expected workers 8, got %d", cfg.Workers)
	}
	if !cfg.Recursive {
		t.Error("expected recursive true")
	}
	if cfg.Mask != "*.png" {
		t.Errorf("nil flags should not override, got mask %q", cfg.Mask)
	}
	if cfg.MinLen != 2 {
		t.Errorf("nil flags should not override, got min_len %d", cfg.MinLen)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
		{"min_len too small", func(c *Config) { c.MinLen = 1 }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"trace level valid", func(c *Config) { c.LogLevel = "trace" }, false},
		{"error level valid", func(c *Config) { c.LogLevel = "error" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
