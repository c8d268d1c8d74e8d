package composer

import (
	"time"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

const defaultStorageTimeout = 5 * time.Second

// Options configure one session. Placeholder, Width, AutoFocus, SpellCheck and
// Theme are presentation hints carried for the host; they do not change
// session behavior.
type Options struct {
	InitialValue      string
	InitialDocumentID string
	DefaultMode       Mode
	DefaultView       View

	// ReadOnly pins the session to read mode.
	ReadOnly   bool
	AutoFocus  bool
	SpellCheck bool

	// AutoSaveInterval <= 0 disables the timer; changes are then written
	// through to storage as they happen.
	AutoSaveInterval time.Duration
	StorageKeyPrefix string

	Placeholder string
	Width       string
	Theme       string

	// Debug lowers the session logger to debug level.
	Debug bool

	// SanitizeEngineOutput strips line-break artifacts from text pulled out of
	// the engine. See CleanupLineBreaks.
	SanitizeEngineOutput bool

	StorageTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		InitialDocumentID:    DefaultDocumentID,
		DefaultMode:          ModeEdit,
		DefaultView:          ViewRich,
		AutoFocus:            true,
		SpellCheck:           true,
		AutoSaveInterval:     5 * time.Second,
		StorageKeyPrefix:     storage.DefaultPrefix,
		Placeholder:          "Start writing...",
		Width:                "100%",
		Theme:                config.LightTheme,
		SanitizeEngineOutput: true,
		StorageTimeout:       defaultStorageTimeout,
	}
}

// OptionsFromConfig converts the composer section of the config file.
func OptionsFromConfig(cfg config.ComposerConfig, storageTimeout time.Duration) (Options, error) {
	mode, err := ParseMode(cfg.DefaultMode)
	if err != nil {
		return Options{}, err
	}
	view, err := ParseView(cfg.DefaultView)
	if err != nil {
		return Options{}, err
	}

	return Options{
		InitialValue:         cfg.InitialValue,
		InitialDocumentID:    cfg.InitialDocumentID,
		DefaultMode:          mode,
		DefaultView:          view,
		ReadOnly:             cfg.ReadOnly,
		AutoFocus:            cfg.AutoFocus,
		SpellCheck:           cfg.SpellCheck,
		AutoSaveInterval:     cfg.AutoSaveInterval,
		StorageKeyPrefix:     cfg.StorageKeyPrefix,
		Placeholder:          cfg.Placeholder,
		Width:                cfg.Width,
		Theme:                cfg.Theme,
		Debug:                cfg.Debug,
		SanitizeEngineOutput: cfg.SanitizeEngineOutput,
		StorageTimeout:       storageTimeout,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.InitialDocumentID == "" {
		o.InitialDocumentID = DefaultDocumentID
	}
	if o.DefaultMode == "" {
		o.DefaultMode = ModeEdit
	}
	if o.DefaultView == "" {
		o.DefaultView = ViewRich
	}
	if o.StorageKeyPrefix == "" {
		o.StorageKeyPrefix = storage.DefaultPrefix
	}
	if o.StorageTimeout <= 0 {
		o.StorageTimeout = defaultStorageTimeout
	}
	return o
}

// Callbacks are invoked without the session lock held, possibly from the
// engine-creation or auto-save goroutines. Any of them may be nil.
type Callbacks struct {
	OnChange     func(text string)
	OnSave       func(text, documentID string)
	OnModeChange func(mode Mode)
	OnViewChange func(view View)
	OnError      func(err error)
}
