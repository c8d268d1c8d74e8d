package host

import (
	"fmt"
	"net/http"
	"time"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/sse"
)

// serveEvents streams save notifications for one document. An open stream
// keeps the browser's session from being evicted.
func (h *Host) serveEvents(w http.ResponseWriter, r *http.Request) {
	documentID := r.URL.Query().Get("document")
	if documentID == "" {
		http.Error(w, config.ErrDocumentIDRequired, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	if b, ok := h.lookup(r); ok {
		h.confirm(b)
		b.streams.Add(1)
		defer func() {
			b.streams.Add(-1)
			b.touch(time.Now())
		}()
	}

	client := sse.NewClient(documentID)
	h.clients.Add(client)
	h.logger.Debug().Str("document", documentID).Msg("SSE client connected")

	defer func() {
		h.clients.Delete(client)
		h.logger.Debug().Str("document", documentID).Msg("SSE client disconnected")
	}()

	fmt.Fprint(w, sse.Format(sse.EventConnected, documentID))
	flusher.Flush()

	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprint(w, msg)
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-h.ctx.Done():
			return
		}
	}
}
