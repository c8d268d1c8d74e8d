package host

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/debemdeboas/semantic-composer/internal/composer"
	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/model"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

// State is the JSON view of a session.
type State struct {
	DocumentID string `json:"documentId"`
	Content    string `json:"content"`
	Mode       string `json:"mode"`
	View       string `json:"view"`
	ReadOnly   bool   `json:"readOnly"`
}

func stateOf(s *composer.Session) State {
	snap := s.CurrentContent()
	return State{
		DocumentID: snap.DocumentID,
		Content:    snap.Content,
		Mode:       string(s.Mode()),
		View:       string(s.View()),
		ReadOnly:   s.Options().ReadOnly,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Host) serveContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateOf(h.session(w, r)))
}

func (h *Host) serveSetContent(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if !s.SetContent(r.FormValue("content"), r.FormValue("document-id")) {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

// serveLoad accepts either a markdown upload in "file" or "content" plus
// "document-id" form fields. Uploads default their id to the file's base name.
func (h *Host) serveLoad(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)

	text := r.FormValue("content")
	documentID := r.FormValue("document-id")

	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, config.ErrUploadTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		text = string(data)
		if documentID == "" {
			documentID = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
		}
	}

	if documentID == "" {
		http.Error(w, config.ErrDocumentIDRequired, http.StatusBadRequest)
		return
	}
	if !s.LoadDocument(text, documentID) {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

// serveOpen switches to a stored document.
func (h *Host) serveOpen(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	documentID := r.FormValue("document-id")
	if documentID == "" {
		http.Error(w, config.ErrDocumentIDRequired, http.StatusBadRequest)
		return
	}

	text, ok, err := s.Storage().Read(r.Context(), documentID)
	if err != nil {
		h.logger.Error().Stack().Err(err).Str("document", documentID).Msg("Error reading document")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}

	if !s.LoadDocument(text, documentID) {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Host) serveDocuments(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	docs, err := h.documents(r, s)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type documentJSON struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Key     string `json:"key"`
		Length  int    `json:"length"`
		Current bool   `json:"current"`
	}
	out := make([]documentJSON, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentJSON{
			ID:      string(doc.ID),
			Title:   doc.DisplayTitle(),
			Key:     doc.Key,
			Length:  doc.Length,
			Current: doc.Current,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Host) documents(r *http.Request, s *composer.Session) ([]model.Document, error) {
	adapter := s.Storage()
	ids, err := adapter.Documents(r.Context())
	if err != nil {
		return nil, err
	}

	current := s.DocumentID()
	docs := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		text, ok, err := adapter.Read(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		docs = append(docs, model.NewDocument(model.DocumentID(id), adapter.KeyFor(id), text, id == current))
	}
	return docs, nil
}

// serveReset reads the reset flags from the form. With no flags present the
// default reset applies.
func (h *Host) serveReset(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := composer.DefaultResetOptions()
	if len(r.Form) > 0 {
		opts = composer.ResetOptions{
			ClearContent:           formBool(r, "clear-content"),
			ClearCurrentStorage:    formBool(r, "clear-current-storage"),
			ClearAllStorage:        formBool(r, "clear-all-storage"),
			ResetToDefaultDocument: formBool(r, "reset-to-default-document"),
		}
	}

	s.Reset(opts)
	writeJSON(w, http.StatusOK, stateOf(s))
}

func formBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.Form.Get(name))
	return err == nil && v
}

func (h *Host) serveModeToggle(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.ToggleMode()
	h.settle(r, s)
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Host) serveViewToggle(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	s.ToggleView()
	h.settle(r, s)
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Host) serveInput(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	h.settle(r, s)
	if !s.HandleInput(r.FormValue("content")) {
		http.Error(w, "Input refused", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Host) serveSave(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if !s.Save() {
		http.Error(w, "Save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s))
}

func (h *Host) serveExport(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	name := s.DocumentID()
	if name == "" || name == storage.CurrentDocumentName {
		name = "document"
	}

	w.Header().Set(config.HCType, config.CTypeMarkdown)
	w.Header().Set(config.HContentDisposition, `attachment; filename="`+sanitizeFilename(name)+`.md"`)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, s.Export())
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20:
			return '_'
		}
		return r
	}, name)
}

// settle waits for a pending engine so the response reflects it.
func (h *Host) settle(r *http.Request, s *composer.Session) {
	if err := s.WaitReady(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Request ended before the engine was ready")
	}
}
