package model

import (
	"html/template"
	"net/http"

	"github.com/debemdeboas/semantic-composer/internal/theme"
)

const SiteName = "Semantic Composer"

type PageData struct {
	SiteName string
	PageURL  string

	Theme     string
	ThemeIcon string

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string

	Editor *EditorData
}

// EditorData is the state of one session as the editor template shows it.
type EditorData struct {
	DocumentID DocumentID
	Mode       string
	View       string
	Content    string
	HTML       template.HTML

	ReadOnly    bool
	AutoFocus   bool
	SpellCheck  bool
	Placeholder string
	Width       string

	Documents []Document
}

func (e *EditorData) Editing() bool {
	return e.Mode == "edit"
}

func (e *EditorData) Raw() bool {
	return e.View == "raw"
}

func NewPageData(r *http.Request, resolver *theme.Resolver) *PageData {
	pageTheme := resolver.FromRequest(r)
	syntaxTheme := resolver.SyntaxFromRequest(r)
	return &PageData{
		SiteName:     SiteName,
		PageURL:      r.URL.Path,
		Theme:        pageTheme,
		ThemeIcon:    theme.Icon(pageTheme),
		SyntaxTheme:  syntaxTheme,
		SyntaxThemes: theme.SyntaxThemes(),
		SyntaxCSS:    theme.SyntaxCSS(syntaxTheme),
	}
}
