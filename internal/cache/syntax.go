package cache

import "html/template"

// syntaxCache holds generated chroma stylesheets keyed by style name.
var syntaxCache = NewCache[string, template.CSS]()

func GetSyntaxCSS(style string) (template.CSS, bool) {
	return syntaxCache.Get(style)
}

func SetSyntaxCSS(style string, css template.CSS) {
	syntaxCache.Set(style, css)
}

func ForgetSyntaxCSS(style string) {
	syntaxCache.Delete(style)
}
