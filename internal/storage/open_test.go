package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/debemdeboas/semantic-composer/internal/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     config.StorageConfig
		want    string
		wantErr bool
	}{
		{"memory", config.StorageConfig{Backend: BackendMemory}, BackendMemory, false},
		{"fs", config.StorageConfig{Backend: BackendFS, Dir: filepath.Join(dir, "docs")}, BackendFS, false},
		{"sqlite", config.StorageConfig{Backend: BackendSQLite, Path: filepath.Join(dir, "c.db"), Compression: "zstd"}, BackendSQLite, false},
		{"sqlite bad codec", config.StorageConfig{Backend: BackendSQLite, Compression: "lz4"}, "", true},
		{"s3 without bucket", config.StorageConfig{Backend: BackendS3}, "", true},
		{"unknown", config.StorageConfig{Backend: "redis"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, err := Open(ctx, tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer backend.Close()
			if backend.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", backend.Name(), tt.want)
			}

			a := NewAdapter(backend, "")
			if err := a.Write(ctx, "smoke", "ok"); err != nil {
				t.Fatal(err)
			}
			if text, ok, _ := a.Read(ctx, "smoke"); !ok || text != "ok" {
				t.Errorf("Read = %q, %v", text, ok)
			}
		})
	}
}
