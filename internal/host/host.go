// Package host is the demo web application around the composer: every browser
// gets its own composer.Session, driven through HTTP handlers.
package host

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/cache"
	"github.com/debemdeboas/semantic-composer/internal/composer"
	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/engine"
	"github.com/debemdeboas/semantic-composer/internal/render"
	"github.com/debemdeboas/semantic-composer/internal/routes"
	"github.com/debemdeboas/semantic-composer/internal/sse"
	"github.com/debemdeboas/semantic-composer/internal/storage"
	"github.com/debemdeboas/semantic-composer/internal/theme"
	"github.com/debemdeboas/semantic-composer/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

type Host struct {
	opts     composer.Options
	store    storage.Store
	factory  composer.EngineFactory
	renderer *render.Renderer
	themes   *theme.Resolver
	clients  *sse.Clients
	sessions *cache.Cache[string, *browserSession]
	limits   sessionLimits
	admit    sync.Mutex

	templates *template.Template
	static    fs.FS

	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger
}

func New(cfg *config.Config, store storage.Store, logger zerolog.Logger) (*Host, error) {
	opts, err := composer.OptionsFromConfig(cfg.Composer, cfg.Storage.Timeout)
	if err != nil {
		return nil, errors.Wrap(err, "invalid composer options")
	}

	themes := theme.NewResolver(opts.Theme, cfg.Theme.SyntaxHighlighting)
	renderer := render.NewRenderer(cfg.Theme.Renderer)

	tmpl, err := template.New(config.TemplateLayout).
		Funcs(template.FuncMap{"static": staticURL}).
		ParseFS(content, config.TemplatesLocalDir+"/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "error parsing templates")
	}

	static, err := fs.Sub(content, config.StaticLocalDir)
	if err != nil {
		return nil, errors.Wrap(err, "error opening static files")
	}
	if err := hashStatic(static); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Host{
		opts:      opts,
		store:     store,
		factory:   engine.NewFactory(renderer, themes.DefaultSyntax(opts.Theme)),
		renderer:  renderer,
		themes:    themes,
		clients:   sse.NewClients(),
		sessions:  cache.NewCache[string, *browserSession](),
		limits:    limitsFromConfig(cfg.Server),
		templates: tmpl,
		static:    static,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger.With().Str("component", "host").Logger(),
	}
	go h.sweepSessions()
	return h, nil
}

// Handler returns the routed and wrapped HTTP handler.
func (h *Host) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(h.static))))
	mux.HandleFunc(routes.RobotsPath, serveRobots)
	mux.HandleFunc("POST "+routes.ThemeToggle, h.serveThemeToggle)
	mux.HandleFunc("POST "+routes.SyntaxThemeSet, h.serveSyntaxThemeSet)
	mux.HandleFunc("GET "+routes.SyntaxThemeGet, h.serveSyntaxThemeGet)
	mux.HandleFunc("GET "+routes.SSEPath, h.serveEvents)

	mux.HandleFunc("GET "+routes.PartialsEditor, h.serveEditorPartial)
	mux.HandleFunc("POST "+routes.PartialsPreview, h.servePreview)

	mux.HandleFunc("GET "+routes.APIContent, h.serveContent)
	mux.HandleFunc("PUT "+routes.APIContent, h.serveSetContent)
	mux.HandleFunc("GET "+routes.APIDocuments, h.serveDocuments)
	mux.HandleFunc("POST "+routes.APILoad, h.serveLoad)
	mux.HandleFunc("POST "+routes.APIOpen, h.serveOpen)
	mux.HandleFunc("POST "+routes.APIReset, h.serveReset)
	mux.HandleFunc("POST "+routes.APIModeToggle, h.serveModeToggle)
	mux.HandleFunc("POST "+routes.APIViewToggle, h.serveViewToggle)
	mux.HandleFunc("POST "+routes.APIInput, h.serveInput)
	mux.HandleFunc("POST "+routes.APISave, h.serveSave)
	mux.HandleFunc("GET "+routes.APIExport, h.serveExport)

	mux.HandleFunc("GET "+routes.RootPath+"{$}", h.serveIndex)

	return cacheIt(secureHeaders(mux.ServeHTTP))
}

// Close stops the sweeper and unmounts every session.
func (h *Host) Close() {
	h.admit.Lock()
	defer h.admit.Unlock()

	h.cancel()
	for _, id := range h.sessions.Keys() {
		if b, ok := h.sessions.Get(id); ok {
			h.evict(b, "shutdown")
		}
	}
}

func (h *Host) Sessions() int {
	return h.sessions.Len()
}

// newSession mounts a session for a request without a known cookie. It starts
// unconfirmed, so only explicit edits are written until the cookie returns.
func (h *Host) newSession(id string) *browserSession {
	logger := h.logger.With().Str("session", id).Logger()

	callbacks := composer.Callbacks{
		OnSave: func(_, documentID string) {
			h.clients.Broadcast(documentID, sse.EventSaved, documentID)
		},
		OnModeChange: func(mode composer.Mode) {
			logger.Debug().Str("mode", string(mode)).Msg("Mode changed")
		},
		OnViewChange: func(view composer.View) {
			logger.Debug().Str("view", string(view)).Msg("View changed")
		},
	}

	opts := h.opts
	opts.AutoSaveInterval = 0

	b := &browserSession{
		Session: composer.New(opts, callbacks, h.store, h.factory, logger),
		id:      id,
	}
	b.Mount(h.ctx)

	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()
	if err := b.WaitReady(ctx); err != nil {
		logger.Warn().Err(err).Msg("Engine not ready")
	}

	logger.Info().Str("document", b.DocumentID()).Msg("Session started")
	return b
}

func hashStatic(static fs.FS) error {
	return fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, util.ContentHash(data))
		return nil
	})
}

func staticURL(path string) string {
	url := config.StaticUrlPath + path
	if hash, ok := cache.GetStaticHash(url); ok {
		return url + "?v=" + hash[:12]
	}
	return url
}
