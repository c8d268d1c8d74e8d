package storage

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const fsRecordExt = ".md"

// FSStore keeps one markdown file per record in a directory. File names are
// the query-escaped record key, so keys survive the round trip unchanged.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "create storage directory %s", dir)
	}
	return &FSStore{dir: dir}, nil
}

func (f *FSStore) Name() string { return BackendFS }

func (f *FSStore) path(key string) string {
	return filepath.Join(f.dir, url.QueryEscape(key)+fsRecordExt)
}

func (f *FSStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Set writes through a temp file and renames it over the record.
func (f *FSStore) Set(_ context.Context, key, value string) error {
	target := f.path(key)

	tmp, err := os.CreateTemp(f.dir, filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, target)
}

func (f *FSStore) Remove(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FSStore) Keys(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fsRecordExt) {
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, fsRecordExt))
		if err != nil {
			storageLogger.Warn().Str("file", name).Msg("Skipping file with undecodable name")
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *FSStore) Close() error { return nil }
