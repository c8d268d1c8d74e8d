// Package storage is the persistence adapter of the composer: it derives record
// keys from a prefix and a document id, and reads and writes markdown blobs
// through a pluggable key-value Store.
//
// Layout under a prefix:
//
//	{prefix}:{documentId}          raw markdown of one document
//	{prefix}:current-document-id   id of the last active document
package storage

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPrefix       = "editor"
	Separator           = ":"
	CurrentDocumentName = "current-document-id"
)

var (
	ErrInvalidDocumentID  = errors.New("document id must not be empty")
	ErrReservedDocumentID = errors.New("document id " + CurrentDocumentName + " is reserved")
)

var storageLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	storageLogger = l
}

// Store is the key-value capability the adapter writes through. Implementations
// must be safe for concurrent use; concurrent writers to one key are
// last-write-wins.
type Store interface {
	// Get returns ok=false when no record exists for key.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove is a no-op for missing keys.
	Remove(ctx context.Context, key string) error
	// Keys lists the keys starting with prefix. Order is unspecified.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Backend is a Store that owns resources.
type Backend interface {
	Store
	Name() string
	Close() error
}

func KeyFor(prefix, documentID string) string {
	return prefix + Separator + documentID
}

func CurrentDocumentKey(prefix string) string {
	return KeyFor(prefix, CurrentDocumentName)
}

// ParseKey recovers the document id from a key produced by KeyFor.
func ParseKey(prefix, key string) (string, bool) {
	head := prefix + Separator
	if !strings.HasPrefix(key, head) {
		return "", false
	}
	id := key[len(head):]
	if id == "" {
		return "", false
	}
	return id, true
}

func ValidateDocumentID(documentID string) error {
	switch documentID {
	case "":
		return ErrInvalidDocumentID
	case CurrentDocumentName:
		return ErrReservedDocumentID
	}
	return nil
}
