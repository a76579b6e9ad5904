package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
addr: ":8080"
templatesDir: "/srv/templates"
filenameColumn: "FULL_NAME"
renderTimeout: "45s"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.TemplatesDir != "/srv/templates" {
		t.Errorf("TemplatesDir = %q", cfg.TemplatesDir)
	}
	if cfg.FilenameColumn != "FULL_NAME" {
		t.Errorf("FilenameColumn = %q", cfg.FilenameColumn)
	}

	// Unset keys keep their defaults.
	if cfg.OutputDir != "output" {
		t.Errorf("OutputDir = %q, want default", cfg.OutputDir)
	}
	if cfg.CounterFile != "counter.json" {
		t.Errorf("CounterFile = %q, want default", cfg.CounterFile)
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		t.Fatalf("Timeout() error: %v", err)
	}
	if timeout != 45*time.Second {
		t.Errorf("Timeout() = %v, want 45s", timeout)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "unknown key rejected",
			content: "adress: \":8080\"\n",
			wantErr: ErrConfigParse,
		},
		{
			name:    "invalid yaml",
			content: "addr: [unclosed\n",
			wantErr: ErrConfigParse,
		},
		{
			name:    "invalid timeout",
			content: "renderTimeout: \"fast\"\n",
			wantErr: ErrConfigParse,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig() error = %v, want ErrConfigNotFound", err)
	}
}

func TestDefaultConfigTimeout(t *testing.T) {
	t.Parallel()

	timeout, err := DefaultConfig().Timeout()
	if err != nil {
		t.Fatalf("Timeout() error: %v", err)
	}
	if timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want 30s", timeout)
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"docbatch", "--addr", ":9090", "-v", "--config", "cfg.yaml"})
	if err != nil {
		t.Fatalf("parseFlags() error: %v", err)
	}
	if flags.addr != ":9090" || !flags.verbose || flags.config != "cfg.yaml" {
		t.Errorf("parseFlags() = %+v", flags)
	}
}
