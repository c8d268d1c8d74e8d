package host

import (
	"fmt"
	"net/http"

	"github.com/debemdeboas/semantic-composer/internal/composer"
	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/model"
	"github.com/debemdeboas/semantic-composer/internal/render"
	"github.com/debemdeboas/semantic-composer/internal/theme"
	"github.com/debemdeboas/semantic-composer/internal/util"
)

const previewPlaceholder = "Start typing in the editor to see a preview here."

func (h *Host) editorData(r *http.Request, s *composer.Session, syntaxTheme string) *model.EditorData {
	snap := s.CurrentContent()
	opts := s.Options()

	data := &model.EditorData{
		DocumentID:  model.DocumentID(snap.DocumentID),
		Mode:        string(s.Mode()),
		View:        string(s.View()),
		Content:     snap.Content,
		ReadOnly:    opts.ReadOnly,
		AutoFocus:   opts.AutoFocus,
		SpellCheck:  opts.SpellCheck,
		Placeholder: opts.Placeholder,
		Width:       opts.Width,
	}
	if s.View() == composer.ViewRich {
		data.HTML = h.renderer.Render(snap.Content, syntaxTheme).HTML
	} else if src, err := render.Source(snap.Content, syntaxTheme); err == nil {
		data.HTML = src
	}

	docs, err := h.documents(r, s)
	if err != nil {
		h.logger.Error().Stack().Err(err).Msg("Error listing documents")
	}
	data.Documents = docs
	return data
}

func (h *Host) serveIndex(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	page := model.NewPageData(r, h.themes)
	page.Editor = h.editorData(r, s, page.SyntaxTheme)

	w.Header().Set(config.HETag, util.ContentHash([]byte(page.Theme+page.SyntaxTheme+page.Editor.Content)))
	if err := h.templates.ExecuteTemplate(w, config.TemplateLayout, page); err != nil {
		h.logger.Error().Err(err).Msg("Error executing layout template")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Host) serveEditorPartial(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)

	page := model.NewPageData(r, h.themes)
	page.Editor = h.editorData(r, s, page.SyntaxTheme)

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := h.templates.ExecuteTemplate(w, config.TemplateEditor, page); err != nil {
		h.logger.Error().Err(err).Msg("Error executing editor template")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Host) servePreview(w http.ResponseWriter, r *http.Request) {
	text := r.FormValue("content")
	if text == "" {
		text = previewPlaceholder
	}

	result := h.renderer.Render(text, h.themes.SyntaxFromRequest(r))

	w.Header().Set(config.HCType, config.CTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.HTML))
}

func serveRobots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(config.HCType, "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("User-agent: *\nDisallow: /"))
}

func (h *Host) serveThemeToggle(w http.ResponseWriter, r *http.Request) {
	newTheme := theme.Toggle(h.themes.FromRequest(r))

	http.SetCookie(w, &http.Cookie{
		Name:  config.CookieTheme,
		Value: newTheme,
		Path:  "/",
	})

	syntaxTheme := h.themes.DefaultSyntax(newTheme)
	if cookie, err := r.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		syntaxTheme = cookie.Value
	}

	w.Header().Set("Hx-Trigger", fmt.Sprintf(`{"themeChanged":{"value":%q,"syntaxTheme":%q}}`, newTheme, syntaxTheme))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(theme.Icon(newTheme)))
}

func (h *Host) serveSyntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	style := r.FormValue("syntax-theme-select")
	if style == "" {
		http.Error(w, "theme required", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.CookieSyntaxTheme,
		Value:    style,
		Path:     "/",
		HttpOnly: true,
	})
	writeCSS(w, theme.SyntaxCSS(style))
}

func (h *Host) serveSyntaxThemeGet(w http.ResponseWriter, r *http.Request) {
	writeCSS(w, theme.SyntaxCSS(r.PathValue("theme")))
}

func writeCSS[T ~string](w http.ResponseWriter, css T) {
	body := []byte(css)
	w.Header().Set(config.HCType, config.CTypeCSS)
	w.Header().Set(config.HETag, util.ContentHash(body))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
