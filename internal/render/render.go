// Package render turns markdown into HTML for the rich view and the preview
// endpoint, with chroma highlighting for fenced code.
package render

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/mmarkdown/mmark/v2/lang"
	"github.com/mmarkdown/mmark/v2/mast"
	"github.com/mmarkdown/mmark/v2/mparser"
	"github.com/mmarkdown/mmark/v2/render/mhtml"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/cache"
	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/theme"
	"github.com/debemdeboas/semantic-composer/internal/util"
)

var renderLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	renderLogger = l
}

// Result is one rendered document.
type Result struct {
	HTML template.HTML
	// Title is the parsed front matter; nil for the classic renderer.
	Title *mast.TitleData
}

// Renderer renders with one markdown flavor and caches results by content
// hash and highlight theme.
type Renderer struct {
	kind  string
	cache *cache.Cache[string, Result]
	mu    sync.Mutex
}

func NewRenderer(kind string) *Renderer {
	if kind != config.RendererClassic {
		kind = config.RendererMmark
	}
	return &Renderer{
		kind:  kind,
		cache: cache.NewCache[string, Result](),
	}
}

func (r *Renderer) Kind() string {
	return r.kind
}

func (r *Renderer) Render(md, highlightTheme string) Result {
	key := util.ContentHashString(md) + "|" + highlightTheme

	if cached, found := r.cache.Get(key); found {
		renderLogger.Debug().Str("key", key).Msg("Cache hit for rendered markdown")
		return cached
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, found := r.cache.Get(key); found {
		return cached
	}

	renderLogger.Debug().Str("key", key).Msg("Cache miss for rendered markdown")
	result := Markdown([]byte(md), r.kind, highlightTheme)
	r.cache.Set(key, result)
	return result
}

// Forget drops every cached result.
func (r *Renderer) Forget() {
	r.cache.Clear()
}

func (r *Renderer) Cached() int {
	return r.cache.Len()
}

func Markdown(md []byte, kind, highlightTheme string) Result {
	switch kind {
	case config.RendererClassic:
		return Result{HTML: template.HTML(Classic(md, highlightTheme))}
	default:
		out, title := Mmark(md, highlightTheme)
		return Result{HTML: template.HTML(out), Title: title}
	}
}

func HighlightCode(code, language, highlightTheme string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	style := styles.Get(highlightTheme)
	var buf strings.Builder
	if err := theme.Formatter().Format(&buf, style, iterator); err != nil {
		return code
	}

	res := html.UnescapeString(buf.String())
	return config.RegexCallout.ReplaceAllString(res, "<span class=\"callout\">$1</span>")
}

func codeBlockHook(highlightTheme string) func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
	return func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
		code, ok := node.(*ast.CodeBlock)
		if !ok || !entering {
			return ast.GoToNext, false
		}
		var language string
		if info := code.Info; info != nil {
			language = string(info)
		}
		fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), language, highlightTheme))
		return ast.GoToNext, true
	}
}

func Classic(md []byte, highlightTheme string) []byte {
	codeHook := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Flags:    md_html.CommonFlags | md_html.HrefTargetBlank | md_html.FootnoteReturnLinks,
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := codeHook(w, node, entering); handled {
				return status, true
			}
			if callout, ok := node.(*ast.Callout); ok && entering {
				fmt.Fprintf(w, "<span class=\"callout\">%s</span>", callout.ID)
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	doc := parser.NewWithExtensions(
		parser.Tables | parser.FencedCode | parser.Autolink | parser.Strikethrough | parser.SpaceHeadings |
			parser.HeadingIDs | parser.BackslashLineBreak | parser.SuperSubscript | parser.DefinitionLists |
			parser.AutoHeadingIDs | parser.Footnotes | parser.OrderedListStart | parser.Attributes |
			parser.NonBlockingSpace,
	).Parse(md)

	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// Mmark renders with the mmark dialect. Includes are disabled: documents come
// from users, not from the filesystem.
func Mmark(md []byte, highlightTheme string) ([]byte, *mast.TitleData) {
	md = markdown.NormalizeNewlines(md)

	p := parser.NewWithExtensions((mparser.Extensions | parser.NoIntraEmphasis) &^ parser.Includes)

	var info *mast.TitleData
	p.Opts = parser.Options{
		ParserHook: func(data []byte) (ast.Node, []byte, int) {
			node, data, consumed := mparser.Hook(data)
			if t, ok := node.(*mast.Title); ok {
				info = t.TitleData
			}
			return node, data, consumed
		},
		Flags: parser.FlagsNone,
	}

	doc := markdown.Parse(md, p)
	mparser.AddIndex(doc)

	if info == nil {
		info = &mast.TitleData{
			Title:    "Untitled",
			Language: "en",
		}
	}

	mhtmlOpts := mhtml.RendererOptions{
		Language: lang.New(info.Language),
	}

	codeHook := codeBlockHook(highlightTheme)
	opts := md_html.RendererOptions{
		Comments: [][]byte{[]byte("//"), []byte("#")},
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if status, handled := codeHook(w, node, entering); handled {
				return status, true
			}
			return mhtmlOpts.RenderHook(w, node, entering)
		},
		Flags: md_html.CommonFlags | md_html.FootnoteNoHRTag | md_html.FootnoteReturnLinks,
	}

	return markdown.Render(doc, md_html.NewRenderer(opts)), info
}
