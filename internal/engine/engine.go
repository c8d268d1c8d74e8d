// Package engine is a headless rich-text engine: it keeps the markdown of one
// editing surface, renders it for display and reports edits to its owner.
package engine

import (
	"context"
	"html/template"
	"sync"

	"github.com/gomarkdown/markdown"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/composer"
	"github.com/debemdeboas/semantic-composer/internal/render"
)

var (
	ErrDestroyed = errors.New("engine destroyed")
	ErrReadOnly  = errors.New("engine is read-only")
)

var engineLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	engineLogger = l
}

// Factory creates engines that render through a shared Renderer.
type Factory struct {
	renderer       *render.Renderer
	highlightTheme string
}

func NewFactory(renderer *render.Renderer, highlightTheme string) *Factory {
	return &Factory{
		renderer:       renderer,
		highlightTheme: highlightTheme,
	}
}

// Create boots an engine on its own goroutine and returns once the initial
// document is rendered, or when ctx is done.
func (f *Factory) Create(ctx context.Context, initial string, onChange func(string)) (composer.Engine, error) {
	e := &Engine{
		renderer:       f.renderer,
		highlightTheme: f.highlightTheme,
		onChange:       onChange,
	}

	booted := make(chan struct{})
	go func() {
		defer close(booted)
		e.load(initial)
	}()

	select {
	case <-booted:
		engineLogger.Debug().Int("length", len(initial)).Msg("Engine booted")
		return e, nil
	case <-ctx.Done():
		_ = e.Destroy()
		return nil, errors.Wrap(ctx.Err(), "engine boot cancelled")
	}
}

type Engine struct {
	mu sync.Mutex

	renderer       *render.Renderer
	highlightTheme string
	onChange       func(string)

	text      string
	html      template.HTML
	readonly  bool
	destroyed bool
	revision  int
}

func (e *Engine) load(text string) {
	text = string(markdown.NormalizeNewlines([]byte(text)))
	html := e.renderer.Render(text, e.highlightTheme).HTML

	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = text
	e.html = html
	e.revision++
}

func (e *Engine) Markdown() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return "", ErrDestroyed
	}
	return e.text, nil
}

func (e *Engine) HTML() (template.HTML, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return "", ErrDestroyed
	}
	return e.html, nil
}

func (e *Engine) Revision() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.revision
}

func (e *Engine) SetReadonly(readonly bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return ErrDestroyed
	}
	e.readonly = readonly
	return nil
}

func (e *Engine) Readonly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readonly
}

// Edit replaces the surface's markdown as a user edit would and reports the
// change. Unchanged text is not reported.
func (e *Engine) Edit(text string) error {
	text = string(markdown.NormalizeNewlines([]byte(text)))

	e.mu.Lock()
	switch {
	case e.destroyed:
		e.mu.Unlock()
		return ErrDestroyed
	case e.readonly:
		e.mu.Unlock()
		return ErrReadOnly
	case text == e.text:
		e.mu.Unlock()
		return nil
	}
	onChange := e.onChange
	e.mu.Unlock()

	e.load(text)
	if onChange != nil {
		onChange(text)
	}
	return nil
}

// Destroy releases the engine. Later calls are no-ops.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil
	}
	e.destroyed = true
	e.onChange = nil
	e.html = ""
	return nil
}
