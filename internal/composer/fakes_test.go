package composer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/storage"
)

type fakeEngine struct {
	mu        sync.Mutex
	text      string
	readonly  bool
	destroyed bool
	readErr   error
	panicRead bool
	onChange  func(string)
	factory   *fakeFactory
}

func (e *fakeEngine) Markdown() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.panicRead {
		panic("engine exploded")
	}
	if e.readErr != nil {
		return "", e.readErr
	}
	return e.text, nil
}

func (e *fakeEngine) SetReadonly(readonly bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.readonly = readonly
	return nil
}

func (e *fakeEngine) Destroy() error {
	e.mu.Lock()
	already := e.destroyed
	e.destroyed = true
	e.mu.Unlock()
	if !already {
		e.factory.released()
	}
	return nil
}

// Edit simulates typing: the engine updates itself and reports the change.
func (e *fakeEngine) Edit(text string) error {
	e.mu.Lock()
	if e.readonly {
		e.mu.Unlock()
		return errors.New("engine is read-only")
	}
	e.text = text
	onChange := e.onChange
	e.mu.Unlock()
	onChange(text)
	return nil
}

func (e *fakeEngine) Readonly() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readonly
}

type fakeFactory struct {
	mu      sync.Mutex
	gate    chan struct{}
	err     error
	live    int
	created int
	engines []*fakeEngine
}

func (f *fakeFactory) Create(ctx context.Context, initial string, onChange func(string)) (Engine, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	engine := &fakeEngine{text: initial, onChange: onChange, factory: f}
	f.live++
	f.created++
	f.engines = append(f.engines, engine)
	return engine, nil
}

func (f *fakeFactory) released() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.live--
}

func (f *fakeFactory) Live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

func (f *fakeFactory) Last() *fakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.engines) == 0 {
		return nil
	}
	return f.engines[len(f.engines)-1]
}

// failingStore wraps a MemoryStore and fails writes when told to.
type failingStore struct {
	*storage.MemoryStore
	mu        sync.Mutex
	failWrite bool
}

func (s *failingStore) SetFailWrite(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrite = fail
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.failWrite
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type recorder struct {
	mu      sync.Mutex
	changes []string
	saves   []Snapshot
	modes   []Mode
	views   []View
	errs    []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnChange: func(text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.changes = append(r.changes, text)
		},
		OnSave: func(text, documentID string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.saves = append(r.saves, Snapshot{Content: text, DocumentID: documentID})
		},
		OnModeChange: func(mode Mode) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.modes = append(r.modes, mode)
		},
		OnViewChange: func(view View) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.views = append(r.views, view)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) Saves() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.saves...)
}

func (r *recorder) Changes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changes...)
}

type harness struct {
	session  *Session
	factory  *fakeFactory
	store    *failingStore
	recorder *recorder
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.AutoSaveInterval = time.Hour
	return opts
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	return newHarnessWithStore(t, opts, &failingStore{MemoryStore: storage.NewMemoryStore()})
}

func newHarnessWithStore(t *testing.T, opts Options, store *failingStore) *harness {
	t.Helper()
	h := &harness{
		factory:  &fakeFactory{},
		store:    store,
		recorder: &recorder{},
	}
	h.session = New(opts, h.recorder.callbacks(), store, h.factory, zerolog.Nop())
	t.Cleanup(h.session.Close)
	return h
}

func (h *harness) mount(t *testing.T) {
	t.Helper()
	h.session.Mount(context.Background())
	h.settle(t)
}

func (h *harness) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.session.WaitReady(ctx); err != nil {
		t.Fatalf("engine did not settle: %v", err)
	}
}

func (h *harness) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	value, ok, err := h.store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("store get %s: %v", key, err)
	}
	return value, ok
}
