// Package ui holds the terminal color themes shared by the CLI, the REPL
// and the report tables.
package ui

import (
	"os"
	"strings"
	"sync"
)

// EnvTheme names the theme selected at startup ("dark", "light", "none").
const EnvTheme = "QSAG_THEME"

// Theme is a color scheme. Each field is an ANSI escape sequence.
type Theme struct {
	Name string
	// Primary highlights family names.
	Primary string
	// Secondary is used for values and paths.
	Secondary string
	// Success marks completed builds.
	Success string
	// Warning marks durations, prompts and cancellations.
	Warning string
	// Error marks failed builds.
	Error string
	// Info highlights sag statistics.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme uses bright 256-color codes for dark backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme uses darker codes for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape sequences.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// LookupTheme returns the theme called name, case-insensitively.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates the theme called name. Unknown names select the dark
// theme.
func SetTheme(name string) {
	t, ok := LookupTheme(name)
	if !ok {
		t = DarkTheme
	}
	SetCurrentTheme(t)
}

// InitTheme selects the startup theme. Colors are disabled by noColor or by
// NO_COLOR (https://no-color.org/), whatever its value; otherwise QSAG_THEME
// picks the theme, defaulting to dark.
func InitTheme(noColor bool) {
	if noColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetTheme(os.Getenv(EnvTheme))
}
