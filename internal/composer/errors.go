package composer

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies failures reported through Callbacks.OnError.
type Kind string

const (
	KindEngineRead      Kind = "ENGINE_READ"
	KindEngineLifecycle Kind = "ENGINE_LIFECYCLE"
	KindStorage         Kind = "STORAGE"
	KindInvalidInput    Kind = "INVALID_INPUT"
)

var (
	ErrEngineNotReady     = errors.New("engine is not ready")
	ErrDocumentIDRequired = errors.New("document id is required")
	ErrReadOnly           = errors.New("session is read-only")
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  errors.WithStack(err),
	}
}

// IsKind reports whether err is, or wraps, an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// guard turns a panic inside an engine call into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("engine panic: %v", r)
		}
	}()
	return fn()
}
