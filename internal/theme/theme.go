// Package theme resolves the page theme and syntax style of a request and
// generates chroma stylesheets.
package theme

import (
	"html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/debemdeboas/semantic-composer/internal/cache"
	"github.com/debemdeboas/semantic-composer/internal/config"
)

// Resolver picks themes for requests, falling back to configured defaults.
type Resolver struct {
	fallback string
	syntax   config.SyntaxConfig
}

func NewResolver(fallback string, syntax config.SyntaxConfig) *Resolver {
	if fallback != config.DarkTheme {
		fallback = config.LightTheme
	}
	return &Resolver{
		fallback: fallback,
		syntax:   syntax,
	}
}

func (r *Resolver) FromRequest(req *http.Request) string {
	if cookie, err := req.Cookie(config.CookieTheme); err == nil {
		switch cookie.Value {
		case config.LightTheme, config.DarkTheme:
			return cookie.Value
		}
	}
	return r.fallback
}

func (r *Resolver) DefaultSyntax(theme string) string {
	if theme == config.DarkTheme {
		return r.syntax.DefaultDark
	}
	return r.syntax.DefaultLight
}

func (r *Resolver) SyntaxFromRequest(req *http.Request) string {
	if cookie, err := req.Cookie(config.CookieSyntaxTheme); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.DefaultSyntax(r.FromRequest(req))
}

func SyntaxThemes() []string {
	names := styles.Names()
	slices.Sort(names)
	return names
}

func Formatter() *html.Formatter {
	return html.New(
		html.WithClasses(true),
		html.TabWidth(4),
		html.WithLineNumbers(true),
		html.WrapLongLines(true),
	)
}

func SyntaxCSS(style string) template.CSS {
	if css, ok := cache.GetSyntaxCSS(style); ok {
		return css
	}

	var buf strings.Builder
	chromaStyle := styles.Get(style)

	bg := chromaStyle.Get(chroma.Background)
	if !bg.Colour.IsSet() {
		// Styles without a text colour get one that contrasts with the background.
		luminance := (0.299*float64(bg.Background.Red()) +
			0.587*float64(bg.Background.Green()) +
			0.114*float64(bg.Background.Blue())) / 255
		if luminance > 0.5 {
			buf.WriteString(".chroma { color: #181818; }\n")
		}
	}

	_ = Formatter().WriteCSS(&buf, chromaStyle)
	css := template.CSS(buf.String())
	cache.SetSyntaxCSS(style, css)
	return css
}

// Icon is the glyph of the toggle that switches away from theme.
func Icon(theme string) string {
	if theme == config.LightTheme {
		return config.DarkThemeIcon
	}
	return config.LightThemeIcon
}

func Toggle(theme string) string {
	if theme == config.DarkTheme {
		return config.LightTheme
	}
	return config.DarkTheme
}
