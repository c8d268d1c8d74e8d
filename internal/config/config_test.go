package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.InfoLevel))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"initial document id", cfg.Composer.InitialDocumentID, "default"},
		{"default mode", cfg.Composer.DefaultMode, "edit"},
		{"default view", cfg.Composer.DefaultView, "rich"},
		{"auto focus", cfg.Composer.AutoFocus, true},
		{"spell check", cfg.Composer.SpellCheck, true},
		{"auto save interval", cfg.Composer.AutoSaveInterval, 5 * time.Second},
		{"storage key prefix", cfg.Composer.StorageKeyPrefix, "editor"},
		{"placeholder", cfg.Composer.Placeholder, "Start writing..."},
		{"sanitize", cfg.Composer.SanitizeEngineOutput, true},
		{"backend", cfg.Storage.Backend, "sqlite"},
		{"compression", cfg.Storage.Compression, "zstd"},
		{"storage timeout", cfg.Storage.Timeout, 5 * time.Second},
		{"s3 region", cfg.Storage.S3.Region, "auto"},
		{"server port", cfg.Server.Port, "12600"},
		{"session idle timeout", cfg.Server.SessionIdleTimeout, 10 * time.Minute},
		{"session sweep interval", cfg.Server.SessionSweepInterval, 30 * time.Second},
		{"max sessions", cfg.Server.MaxSessions, 256},
		{"renderer", cfg.Theme.Renderer, "mmark"},
		{"log level", cfg.Logging.Level, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, tt.got)
			}
		})
	}

	t.Run("Non-pointer input is ignored", func(t *testing.T) {
		applyDefaults(Config{})
		applyDefaults(42)
	})

	t.Run("String slices and ints", func(t *testing.T) {
		type extra struct {
			Tags  []string `default:"a, b,c"`
			Count int      `default:"3"`
			Ratio float64  `default:"0.5"`
		}
		e := &extra{}
		ApplyDefaults(e)
		if len(e.Tags) != 3 || e.Tags[1] != "b" {
			t.Errorf("Expected trimmed tags, got %v", e.Tags)
		}
		if e.Count != 3 || e.Ratio != 0.5 {
			t.Errorf("Unexpected numeric defaults: %+v", e)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	t.Run("Missing file uses defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if *cfg != *Default() {
			t.Errorf("Expected defaults, got %+v", cfg)
		}
	})

	t.Run("File overrides defaults", func(t *testing.T) {
		cfg, err := LoadConfig("testdata/custom.yaml")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Composer.StorageKeyPrefix != "notes" {
			t.Errorf("Expected prefix 'notes', got %q", cfg.Composer.StorageKeyPrefix)
		}
		if cfg.Composer.AutoSaveInterval != 0 {
			t.Errorf("Expected auto save disabled, got %v", cfg.Composer.AutoSaveInterval)
		}
		if cfg.Composer.DefaultMode != "read" {
			t.Errorf("Expected read mode, got %q", cfg.Composer.DefaultMode)
		}
		if cfg.Storage.Backend != "fs" || cfg.Storage.Dir != "/tmp/notes" {
			t.Errorf("Unexpected storage config %+v", cfg.Storage)
		}
		// Untouched keys keep their defaults.
		if cfg.Composer.DefaultView != "rich" {
			t.Errorf("Expected default view to stay rich, got %q", cfg.Composer.DefaultView)
		}
	})

	t.Run("Invalid files are rejected", func(t *testing.T) {
		cases := map[string]string{
			"testdata/invalid_view.yaml":      "default_view",
			"testdata/s3_without_bucket.yaml": "bucket",
			"testdata/no_sessions.yaml":       "max_sessions",
		}
		for file, want := range cases {
			_, err := LoadConfig(file)
			if err == nil {
				t.Errorf("%s: expected error", file)
				continue
			}
			if !strings.Contains(err.Error(), want) {
				t.Errorf("%s: expected error mentioning %q, got %v", file, want, err)
			}
		}
	})

	t.Run("Malformed YAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("composer: [unclosed"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("Expected parse error")
		}
	})

	t.Run("Credentials from environment", func(t *testing.T) {
		t.Setenv(EnvS3AccessKeyID, "AKIA")
		t.Setenv(EnvS3SecretAccessKey, "secret")
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if cfg.Storage.S3.AccessKeyID != "AKIA" || cfg.Storage.S3.SecretAccessKey != "secret" {
			t.Errorf("Expected credentials from env, got %+v", cfg.Storage.S3)
		}
	})
}
