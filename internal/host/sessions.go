package host

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/debemdeboas/semantic-composer/internal/composer"
	"github.com/debemdeboas/semantic-composer/internal/config"
)

// browserSession is a composer session bound to one session cookie. Until the
// cookie comes back on a later request the session is unconfirmed: it has no
// auto-save timer and is evicted after one sweep interval.
type browserSession struct {
	*composer.Session

	id        string
	lastSeen  atomic.Int64
	confirmed atomic.Bool
	streams   atomic.Int32
}

func (b *browserSession) touch(now time.Time) {
	b.lastSeen.Store(now.UnixNano())
}

func (b *browserSession) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, b.lastSeen.Load()))
}

const (
	defaultIdleTimeout   = 10 * time.Minute
	defaultSweepInterval = 30 * time.Second
)

type sessionLimits struct {
	idleTimeout   time.Duration
	sweepInterval time.Duration
	maxSessions   int
}

func limitsFromConfig(cfg config.ServerConfig) sessionLimits {
	l := sessionLimits{
		idleTimeout:   cfg.SessionIdleTimeout,
		sweepInterval: cfg.SessionSweepInterval,
		maxSessions:   cfg.MaxSessions,
	}
	if l.sweepInterval <= 0 {
		l.sweepInterval = defaultSweepInterval
	}
	if l.idleTimeout <= 0 {
		l.idleTimeout = defaultIdleTimeout
	}
	if l.maxSessions < 1 {
		l.maxSessions = 1
	}
	return l
}

// session returns the browser's session, creating one and setting the cookie
// when the request has none or its session was evicted.
func (h *Host) session(w http.ResponseWriter, r *http.Request) *composer.Session {
	if b, ok := h.lookup(r); ok {
		h.confirm(b)
		return b.Session
	}

	b := h.newSession(uuid.NewString())
	b.touch(time.Now())

	h.admit.Lock()
	h.sessions.Set(b.id, b)
	h.enforceLimit(b.id)
	if h.ctx.Err() != nil {
		h.evict(b, "shutdown")
	}
	h.admit.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSession,
		Value:    b.id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return b.Session
}

func (h *Host) lookup(r *http.Request) (*browserSession, bool) {
	cookie, err := r.Cookie(config.CookieSession)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(cookie.Value)
}

// confirm marks the session as used again and starts its auto-save timer the
// first time its cookie is presented.
func (h *Host) confirm(b *browserSession) {
	b.touch(time.Now())
	if b.confirmed.CompareAndSwap(false, true) {
		b.SetAutoSaveInterval(h.opts.AutoSaveInterval)
		h.logger.Debug().Str("session", b.id).Msg("Session confirmed")
	}
}

// sweepSessions evicts idle sessions until the host is closed.
func (h *Host) sweepSessions() {
	ticker := time.NewTicker(h.limits.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case now := <-ticker.C:
			h.sweep(now)
		}
	}
}

// sweep evicts every session idle for longer than its timeout. Sessions with
// an open event stream are kept.
func (h *Host) sweep(now time.Time) int {
	evicted := 0
	for _, id := range h.sessions.Keys() {
		b, ok := h.sessions.Get(id)
		if !ok || b.streams.Load() > 0 {
			continue
		}

		timeout := h.limits.idleTimeout
		if !b.confirmed.Load() {
			timeout = h.limits.sweepInterval
		}
		if b.idle(now) < timeout {
			continue
		}

		h.evict(b, "idle")
		evicted++
	}
	return evicted
}

// enforceLimit evicts sessions, other than keep, while the table is over
// capacity: unconfirmed sessions first, least recently used first. Callers
// hold h.admit.
func (h *Host) enforceLimit(keep string) {
	for h.sessions.Len() > h.limits.maxSessions {
		var victim *browserSession
		for _, id := range h.sessions.Keys() {
			b, ok := h.sessions.Get(id)
			if !ok || id == keep {
				continue
			}
			if victim == nil || evictsBefore(b, victim) {
				victim = b
			}
		}
		if victim == nil {
			return
		}
		h.evict(victim, "capacity")
	}
}

func evictsBefore(a, b *browserSession) bool {
	if ac, bc := a.confirmed.Load(), b.confirmed.Load(); ac != bc {
		return !ac
	}
	return a.lastSeen.Load() < b.lastSeen.Load()
}

func (h *Host) evict(b *browserSession, reason string) {
	h.sessions.Delete(b.id)
	b.Close()
	h.logger.Info().Str("session", b.id).Str("reason", reason).Msg("Session evicted")
}
