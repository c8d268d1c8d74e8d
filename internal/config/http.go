package config

const (
	HCType              = "Content-Type"
	HETag               = "ETag"
	HCacheControl       = "Cache-Control"
	HContentDisposition = "Content-Disposition"

	CTypeCSS      = "text/css"
	CTypeHTML     = "text/html"
	CTypeJSON     = "application/json"
	CTypeMarkdown = "text/markdown; charset=utf-8"
)

const (
	CookieTheme       = "theme"
	CookieSyntaxTheme = "syntax-theme"
	CookieSession     = "composer-session"
)

// MaxUploadSize bounds markdown uploads accepted by the demo host.
const MaxUploadSize = 4 << 20
