package render

import (
	"bytes"
	"html/template"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Source highlights markdown source for the raw view's read-only display.
func Source(markdown, highlightTheme string) (template.HTML, error) {
	lexer := lexers.Get("markdown")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(highlightTheme)
	if style == nil {
		style = styles.Fallback
	}

	formatter := html.New(
		html.WithClasses(true),
		html.WithLineNumbers(false),
	)

	iterator, err := lexer.Tokenise(nil, markdown)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(markdown)), err
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return template.HTML(template.HTMLEscapeString(markdown)), err
	}

	return template.HTML(`<div class="markdown-source">` + buf.String() + `</div>`), nil
}
