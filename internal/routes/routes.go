// Package routes defines the HTTP routes of the composer host.
package routes

const (
	RootPath = "/"

	// Static and assets
	RobotsPath     = "/robots.txt"
	ThemeToggle    = "/theme/toggle"
	SyntaxThemeSet = "/syntax-theme/set"
	SyntaxThemeGet = "/syntax-theme/{theme}"

	// SSE
	SSEPath = "/sse"

	// Partials
	PartialsEditor  = "/partials/editor"
	PartialsPreview = "/partials/preview"

	// API
	APIContent    = "/api/content"
	APIDocuments  = "/api/documents"
	APILoad       = "/api/documents/load"
	APIOpen       = "/api/documents/open"
	APIReset      = "/api/reset"
	APIModeToggle = "/api/mode/toggle"
	APIViewToggle = "/api/view/toggle"
	APIInput      = "/api/input"
	APISave       = "/api/save"
	APIExport     = "/api/export"
)
