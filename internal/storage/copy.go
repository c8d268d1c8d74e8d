package storage

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// Copy writes every record of from whose key starts with prefix into to,
// overwriting existing records. It returns the number of records copied.
func Copy(ctx context.Context, from, to Store, prefix string) (int, error) {
	keys, err := from.Keys(ctx, prefix)
	if err != nil {
		return 0, errors.Wrap(err, "list source keys")
	}
	sort.Strings(keys)

	copied := 0
	for _, key := range keys {
		value, ok, err := from.Get(ctx, key)
		if err != nil {
			return copied, errors.Wrapf(err, "read %s", key)
		}
		if !ok {
			continue
		}
		if err := to.Set(ctx, key, value); err != nil {
			return copied, errors.Wrapf(err, "write %s", key)
		}
		storageLogger.Debug().Str("key", key).Msg("Record copied")
		copied++
	}
	return copied, nil
}
