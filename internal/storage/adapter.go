package storage

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// Adapter binds a Store to one key prefix.
type Adapter struct {
	store  Store
	prefix string
}

func NewAdapter(store Store, prefix string) *Adapter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Adapter{
		store:  store,
		prefix: prefix,
	}
}

func (a *Adapter) Prefix() string {
	return a.prefix
}

func (a *Adapter) KeyFor(documentID string) string {
	return KeyFor(a.prefix, documentID)
}

func (a *Adapter) Read(ctx context.Context, documentID string) (string, bool, error) {
	key := a.KeyFor(documentID)
	text, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return "", false, errors.Wrapf(err, "read %s", key)
	}
	return text, ok, nil
}

func (a *Adapter) Write(ctx context.Context, documentID, text string) error {
	if err := ValidateDocumentID(documentID); err != nil {
		return err
	}
	key := a.KeyFor(documentID)
	if err := a.store.Set(ctx, key, text); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	storageLogger.Debug().Str("key", key).Int("length", len(text)).Msg("Record written")
	return nil
}

func (a *Adapter) Remove(ctx context.Context, documentID string) error {
	key := a.KeyFor(documentID)
	if err := a.store.Remove(ctx, key); err != nil {
		return errors.Wrapf(err, "remove %s", key)
	}
	storageLogger.Debug().Str("key", key).Msg("Record removed")
	return nil
}

// ListKeys returns every key under the prefix, the pointer record included.
func (a *Adapter) ListKeys(ctx context.Context) ([]string, error) {
	keys, err := a.store.Keys(ctx, a.prefix+Separator)
	if err != nil {
		return nil, errors.Wrapf(err, "list keys under %s", a.prefix)
	}
	return keys, nil
}

// ClearAll removes every record under the prefix and reports how many were
// removed. It keeps going after a failed removal and returns the first error.
func (a *Adapter) ClearAll(ctx context.Context) (int, error) {
	keys, err := a.ListKeys(ctx)
	if err != nil {
		return 0, err
	}

	var firstErr error
	removed := 0
	for _, key := range keys {
		if err := a.store.Remove(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "remove %s", key)
			}
			continue
		}
		removed++
	}

	storageLogger.Debug().Str("prefix", a.prefix).Int("removed", removed).Msg("Cleared records")
	return removed, firstErr
}

func (a *Adapter) CurrentDocument(ctx context.Context) (string, bool, error) {
	key := CurrentDocumentKey(a.prefix)
	id, ok, err := a.store.Get(ctx, key)
	if err != nil {
		return "", false, errors.Wrapf(err, "read %s", key)
	}
	if !ok || id == "" {
		return "", false, nil
	}
	return id, true, nil
}

func (a *Adapter) SetCurrentDocument(ctx context.Context, documentID string) error {
	if err := ValidateDocumentID(documentID); err != nil {
		return err
	}
	key := CurrentDocumentKey(a.prefix)
	if err := a.store.Set(ctx, key, documentID); err != nil {
		return errors.Wrapf(err, "write %s", key)
	}
	return nil
}

// Documents returns the sorted ids that have a stored record.
func (a *Adapter) Documents(ctx context.Context) ([]string, error) {
	keys, err := a.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(keys))
	for _, key := range keys {
		id, ok := ParseKey(a.prefix, key)
		if !ok || id == CurrentDocumentName {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
