// Package composer is the session controller of the markdown editor. A Session
// owns one document at a time, a mode and a view, the lifecycle of the
// rich-text engine and the save policy; persistence goes through a
// storage.Adapter.
//
// Session state is guarded by a single mutex. Engine creation, host callbacks
// and engine teardown always run with the mutex released, so engines and hosts
// may call back into the session freely.
package composer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/storage"
)

type Session struct {
	mu sync.Mutex

	opts    Options
	cb      Callbacks
	store   *storage.Adapter
	factory EngineFactory
	logger  zerolog.Logger

	mode       Mode
	view       View
	content    string
	documentID string

	ctx     context.Context
	mounted bool
	closed  bool

	engine     Engine
	generation uint64
	creating   bool
	inflight   int
	idle       chan struct{}

	autoSaveInterval time.Duration
	saver            *autoSaver
}

// effects collects work that must happen after the mutex is released.
type effects struct {
	destroy []Engine
	errs    []error
	notify  []func()
}

func (fx *effects) fail(err error) {
	fx.errs = append(fx.errs, err)
}

func (fx *effects) emit(f func()) {
	fx.notify = append(fx.notify, f)
}

// New builds a session and restores the last active document from store. The
// engine is not created until Mount.
func New(opts Options, cb Callbacks, store storage.Store, factory EngineFactory, logger zerolog.Logger) *Session {
	opts = opts.withDefaults()
	if opts.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	idle := make(chan struct{})
	close(idle)

	s := &Session{
		opts:             opts,
		cb:               cb,
		store:            storage.NewAdapter(store, opts.StorageKeyPrefix),
		factory:          factory,
		logger:           logger.With().Str("component", "composer").Logger(),
		mode:             opts.DefaultMode,
		view:             opts.DefaultView,
		ctx:              context.Background(),
		idle:             idle,
		autoSaveInterval: opts.AutoSaveInterval,
	}
	if opts.ReadOnly {
		s.mode = ModeRead
	}
	if s.mode == ModeRead && s.view == ViewRaw {
		s.view = ViewRich
	}

	fx := &effects{}
	s.mu.Lock()
	s.restoreLocked(fx)
	s.mu.Unlock()
	s.run(fx)

	return s
}

func (s *Session) restoreLocked(fx *effects) {
	ctx, cancel := s.storageContext()
	defer cancel()

	id := s.opts.InitialDocumentID
	if err := storage.ValidateDocumentID(id); err != nil {
		fx.fail(newError(KindInvalidInput, "restore", err))
		id = DefaultDocumentID
	}

	if current, ok, err := s.store.CurrentDocument(ctx); err != nil {
		fx.fail(newError(KindStorage, "restore", err))
	} else if ok && storage.ValidateDocumentID(current) == nil {
		id = current
	}
	s.documentID = id

	s.content = s.opts.InitialValue
	if text, ok, err := s.store.Read(ctx, id); err != nil {
		fx.fail(newError(KindStorage, "restore", err))
	} else if ok && text != "" {
		s.content = text
	}

	s.persistPointerLocked(fx)
	s.logger.Debug().Str("document", id).Int("length", len(s.content)).Msg("Session restored")
}

// Mount binds the session to its mount point: from here on the session keeps a
// live engine whenever the view is rich, and the auto-save timer runs. ctx is
// handed to the engine factory.
func (s *Session) Mount(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.mounted {
		return
	}
	s.ctx = ctx
	s.mounted = true
	s.ensureEngineLocked()
	s.startAutoSaveLocked()
	s.logger.Debug().Str("mode", string(s.mode)).Str("view", string(s.view)).Msg("Session mounted")
}

// Close destroys the engine and stops the auto-save timer. Pending engine
// creations are discarded when they complete. Close is idempotent.
func (s *Session) Close() {
	fx := &effects{}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mounted = false
	s.stopAutoSaveLocked()
	s.destroyEngineLocked(fx)
	s.mu.Unlock()

	s.run(fx)
	s.logger.Debug().Msg("Session closed")
}

// WaitReady blocks until no engine creation is in flight.
func (s *Session) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

func (s *Session) DocumentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentID
}

func (s *Session) StorageKey() string {
	return s.store.KeyFor(s.DocumentID())
}

func (s *Session) Storage() *storage.Adapter {
	return s.store
}

func (s *Session) Options() Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts
}

// CurrentContent returns the authoritative content. With a live engine in the
// rich view that is the engine's markdown; if the engine cannot be read the
// last known content is returned and the failure is reported.
func (s *Session) CurrentContent() Snapshot {
	fx := &effects{}
	s.mu.Lock()
	snap := Snapshot{
		Content:    s.syncFromEngineLocked(fx),
		DocumentID: s.documentID,
	}
	s.mu.Unlock()

	s.run(fx)
	return snap
}

// Export returns the current markdown for download.
func (s *Session) Export() string {
	return s.CurrentContent().Content
}

// SetContent replaces the content, optionally switching the active document.
// The previous engine is destroyed and a new one is created from the new text.
func (s *Session) SetContent(text, documentID string) bool {
	if documentID != "" {
		if err := storage.ValidateDocumentID(documentID); err != nil {
			s.reportError(newError(KindInvalidInput, "setContent", err))
			return false
		}
	}

	fx := &effects{}
	s.mu.Lock()
	if documentID != "" {
		s.documentID = documentID
		s.persistPointerLocked(fx)
	}
	s.replaceContentLocked(fx, text)
	s.mu.Unlock()

	s.run(fx)
	return true
}

// LoadDocument is SetContent with a mandatory document id.
func (s *Session) LoadDocument(text, documentID string) bool {
	if documentID == "" {
		s.reportError(newError(KindInvalidInput, "loadDocument", ErrDocumentIDRequired))
		return false
	}
	return s.SetContent(text, documentID)
}

// SetInitialValue replaces the content when the configured initial value
// changes. Setting the same value again does nothing.
func (s *Session) SetInitialValue(text string) {
	fx := &effects{}
	s.mu.Lock()
	if text == s.opts.InitialValue {
		s.mu.Unlock()
		return
	}
	s.opts.InitialValue = text
	s.replaceContentLocked(fx, text)
	s.mu.Unlock()

	s.run(fx)
}

// Reset applies opts in order: storage clearing, document id reset, content
// clearing. Storage failures are reported and do not stop later steps.
func (s *Session) Reset(opts ResetOptions) bool {
	fx := &effects{}
	s.mu.Lock()
	ctx, cancel := s.storageContext()

	if opts.ClearAllStorage {
		removed, err := s.store.ClearAll(ctx)
		if err != nil {
			fx.fail(newError(KindStorage, "reset", err))
		}
		s.logger.Debug().Int("removed", removed).Msg("Cleared all records")
	}
	if opts.ClearCurrentStorage {
		if err := s.store.Remove(ctx, s.documentID); err != nil {
			fx.fail(newError(KindStorage, "reset", err))
		}
	}
	if opts.ResetToDefaultDocument {
		s.documentID = DefaultDocumentID
		s.persistPointerLocked(fx)
	}
	if opts.ClearContent {
		s.destroyEngineLocked(fx)
		s.content = ""
		if err := s.store.Remove(ctx, s.documentID); err != nil {
			fx.fail(newError(KindStorage, "reset", err))
		}
		s.ensureEngineLocked()
	}

	cancel()
	s.logger.Debug().Interface("options", opts).Str("document", s.documentID).Msg("Session reset")
	s.mu.Unlock()

	s.run(fx)
	return true
}

// ToggleMode flips between edit and read. Entering read mode from the raw view
// first switches to the rich view. No-op when the session is read-only.
func (s *Session) ToggleMode() {
	fx := &effects{}
	s.mu.Lock()
	if s.opts.ReadOnly {
		s.mu.Unlock()
		s.logger.Debug().Msg("Mode toggle ignored on read-only session")
		return
	}

	next := s.mode.Toggle()
	if s.mode == ModeEdit {
		s.syncFromEngineLocked(fx)
	}

	if next == ModeRead && s.view == ViewRaw {
		s.view = ViewRich
		s.mode = next
		s.ensureEngineLocked()
		fx.emit(s.viewChanged(ViewRich))
	} else {
		s.mode = next
		if s.engine != nil {
			engine := s.engine
			if err := guard(func() error { return engine.SetReadonly(next == ModeRead) }); err != nil {
				fx.fail(newError(KindEngineLifecycle, "setReadonly", err))
			}
		}
	}
	fx.emit(s.modeChanged(next))
	s.mu.Unlock()

	s.run(fx)
}

// ToggleView flips between the rich and raw views. Only available in edit
// mode; content is carried across the switch.
func (s *Session) ToggleView() {
	fx := &effects{}
	s.mu.Lock()
	if s.mode != ModeEdit {
		s.mu.Unlock()
		return
	}

	if s.view == ViewRich {
		s.syncFromEngineLocked(fx)
		s.destroyEngineLocked(fx)
		s.view = ViewRaw
	} else {
		s.view = ViewRich
		s.ensureEngineLocked()
	}
	fx.emit(s.viewChanged(s.view))
	s.mu.Unlock()

	s.run(fx)
}

// HandleInput applies text typed by the user. In the raw view it replaces the
// content directly; in the rich view it is pushed into the engine, which
// reports back through its change callback. Input in read mode is refused
// and reported as invalid.
func (s *Session) HandleInput(text string) bool {
	fx := &effects{}
	s.mu.Lock()
	if s.mode != ModeEdit {
		s.mu.Unlock()
		s.reportError(newError(KindInvalidInput, "input", ErrReadOnly))
		return false
	}

	if s.view == ViewRaw {
		s.applyChangeLocked(fx, text)
		s.mu.Unlock()
		s.run(fx)
		return true
	}

	engine := s.engine
	s.mu.Unlock()

	editable, ok := engine.(Editable)
	if engine == nil || !ok {
		s.reportError(newError(KindEngineLifecycle, "input", ErrEngineNotReady))
		return false
	}
	if err := guard(func() error { return editable.Edit(text) }); err != nil {
		s.reportError(newError(KindEngineLifecycle, "input", err))
		return false
	}
	return true
}

// Save writes the current content to the active document's record. OnSave
// fires only when the write succeeded.
func (s *Session) Save() bool {
	fx := &effects{}
	s.mu.Lock()
	ok := s.saveLocked(fx, "manual")
	s.mu.Unlock()

	s.run(fx)
	return ok
}

func (s *Session) saveLocked(fx *effects, trigger string) bool {
	text := s.content
	if s.mode == ModeEdit {
		text = s.syncFromEngineLocked(fx)
	}
	id := s.documentID

	if !s.persistLocked(fx, text) {
		return false
	}
	s.logger.Debug().Str("trigger", trigger).Str("document", id).Int("length", len(text)).Msg("Document saved")
	if s.cb.OnSave != nil {
		fx.emit(func() { s.cb.OnSave(text, id) })
	}
	return true
}

func (s *Session) applyChangeLocked(fx *effects, text string) {
	s.content = text
	if s.autoSaveInterval <= 0 {
		s.persistLocked(fx, text)
	}
	if s.cb.OnChange != nil {
		fx.emit(func() { s.cb.OnChange(text) })
	}
}

func (s *Session) replaceContentLocked(fx *effects, text string) {
	s.destroyEngineLocked(fx)
	s.content = text
	s.persistLocked(fx, text)
	s.ensureEngineLocked()
}

// syncFromEngineLocked pulls the engine's markdown into the session when the
// rich view has a live engine, and returns the authoritative content.
func (s *Session) syncFromEngineLocked(fx *effects) string {
	if s.view != ViewRich || s.engine == nil {
		return s.content
	}

	engine := s.engine
	var text string
	err := guard(func() error {
		var err error
		text, err = engine.Markdown()
		return err
	})
	if err != nil {
		fx.fail(newError(KindEngineRead, "markdown", err))
		return s.content
	}

	if s.opts.SanitizeEngineOutput {
		text = CleanupLineBreaks(text)
	}
	s.content = text
	return text
}

func (s *Session) ensureEngineLocked() {
	if !s.mounted || s.closed || s.view != ViewRich || s.engine != nil || s.creating {
		return
	}

	s.generation++
	s.creating = true
	if s.inflight == 0 {
		s.idle = make(chan struct{})
	}
	s.inflight++

	go s.createEngine(s.ctx, s.generation, s.content)
}

// destroyEngineLocked queues the engine for teardown and invalidates any
// creation in flight.
func (s *Session) destroyEngineLocked(fx *effects) {
	s.generation++
	s.creating = false
	if s.engine != nil {
		fx.destroy = append(fx.destroy, s.engine)
		s.engine = nil
	}
}

func (s *Session) createEngine(ctx context.Context, generation uint64, initial string) {
	var engine Engine
	err := guard(func() error {
		var err error
		engine, err = s.factory.Create(ctx, initial, s.engineChanged(generation))
		return err
	})

	fx := &effects{}
	s.mu.Lock()
	switch {
	case generation != s.generation || s.closed || s.view != ViewRich:
		if engine != nil {
			fx.destroy = append(fx.destroy, engine)
		}
		s.logger.Debug().Uint64("generation", generation).Msg("Discarding stale engine")
	case err != nil:
		s.creating = false
		fx.fail(newError(KindEngineLifecycle, "create", err))
	case engine == nil:
		s.creating = false
		fx.fail(newError(KindEngineLifecycle, "create", ErrEngineNotReady))
	default:
		s.creating = false
		s.engine = engine
		if s.mode == ModeRead {
			if err := guard(func() error { return engine.SetReadonly(true) }); err != nil {
				fx.fail(newError(KindEngineLifecycle, "setReadonly", err))
			}
		}
		s.logger.Debug().Uint64("generation", generation).Msg("Engine ready")
	}
	s.mu.Unlock()

	s.run(fx)

	s.mu.Lock()
	s.inflight--
	if s.inflight == 0 {
		close(s.idle)
	}
	s.mu.Unlock()
}

// engineChanged builds the change callback of one engine generation. Changes
// from a replaced engine are dropped.
func (s *Session) engineChanged(generation uint64) func(string) {
	return func(text string) {
		fx := &effects{}
		s.mu.Lock()
		if generation != s.generation || s.closed || s.mode != ModeEdit {
			s.mu.Unlock()
			return
		}
		if s.opts.SanitizeEngineOutput {
			text = CleanupLineBreaks(text)
		}
		s.applyChangeLocked(fx, text)
		s.mu.Unlock()

		s.run(fx)
	}
}

func (s *Session) persistLocked(fx *effects, text string) bool {
	ctx, cancel := s.storageContext()
	defer cancel()

	if err := s.store.Write(ctx, s.documentID, text); err != nil {
		fx.fail(newError(KindStorage, "write", err))
		return false
	}
	return true
}

func (s *Session) persistPointerLocked(fx *effects) {
	ctx, cancel := s.storageContext()
	defer cancel()

	if err := s.store.SetCurrentDocument(ctx, s.documentID); err != nil {
		fx.fail(newError(KindStorage, "setCurrentDocument", err))
	}
}

func (s *Session) storageContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opts.StorageTimeout)
}

func (s *Session) modeChanged(mode Mode) func() {
	return func() {
		if s.cb.OnModeChange != nil {
			s.cb.OnModeChange(mode)
		}
	}
}

func (s *Session) viewChanged(view View) func() {
	return func() {
		if s.cb.OnViewChange != nil {
			s.cb.OnViewChange(view)
		}
	}
}

// run performs queued effects: engine teardown, error reports, then host
// notifications. Must be called without the mutex held.
func (s *Session) run(fx *effects) {
	for _, engine := range fx.destroy {
		if err := guard(engine.Destroy); err != nil {
			s.reportError(newError(KindEngineLifecycle, "destroy", err))
		}
	}
	for _, err := range fx.errs {
		s.reportError(err)
	}
	for _, notify := range fx.notify {
		notify()
	}
}

func (s *Session) reportError(err error) {
	evt := s.logger.Error().Stack().Err(err)
	if e, ok := err.(*Error); ok {
		evt = evt.Str("kind", string(e.Kind)).Str("op", e.Op)
	}
	evt.Msg("Composer error")

	if s.cb.OnError != nil {
		s.cb.OnError(err)
	}
}
