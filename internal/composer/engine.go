package composer

import "context"

// Engine is a live rich-text editor instance bound to the mount point. A
// session owns at most one. Implementations must not invoke the change
// callback synchronously from Markdown or SetReadonly.
type Engine interface {
	Markdown() (string, error)
	SetReadonly(readonly bool) error
	Destroy() error
}

// Editable engines accept edits pushed from their own editing surface. The
// engine reports the result through its change callback.
type Editable interface {
	Edit(text string) error
}

// EngineFactory creates engines. Create may block until the engine is ready;
// the session always calls it off its own lock. The engine has no way to
// replace its content in place, so new text always means a new engine.
type EngineFactory interface {
	Create(ctx context.Context, initial string, onChange func(text string)) (Engine, error)
}

type EngineFactoryFunc func(ctx context.Context, initial string, onChange func(text string)) (Engine, error)

func (f EngineFactoryFunc) Create(ctx context.Context, initial string, onChange func(text string)) (Engine, error) {
	return f(ctx, initial, onChange)
}
