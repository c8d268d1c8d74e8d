package config

const (
	LightTheme string = "light"
	DarkTheme  string = "dark"

	DefaultTheme string = LightTheme
)

const (
	LightThemeIcon = "☀"
	DarkThemeIcon  = "☾"
)
