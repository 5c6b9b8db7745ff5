package ui

import (
	"os"
	"testing"
)

func TestSetTheme(t *testing.T) {
	originalTheme := GetCurrentTheme()
	defer SetCurrentTheme(originalTheme)

	testCases := []struct {
		name      string
		themeName string
		expected  string
	}{
		{"Dark theme", "dark", "dark"},
		{"Light theme", "light", "light"},
		{"None theme", "none", "none"},
		{"Case insensitive", " Light ", "light"},
		{"Unknown theme defaults to dark", "solarized", "dark"},
		{"Empty string defaults to dark", "", "dark"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			SetTheme(tc.themeName)
			if got := GetCurrentTheme().Name; got != tc.expected {
				t.Errorf("SetTheme(%q): got theme %q, want %q", tc.themeName, got, tc.expected)
			}
		})
	}
}

func TestLookupTheme(t *testing.T) {
	if _, ok := LookupTheme("solarized"); ok {
		t.Error("unknown theme should not be found")
	}
	if th, ok := LookupTheme("NONE"); !ok || th != NoColorTheme {
		t.Errorf("LookupTheme(NONE) = %+v, %v", th, ok)
	}
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestInitTheme(t *testing.T) {
	originalTheme := GetCurrentTheme()
	defer SetCurrentTheme(originalTheme)

	tests := []struct {
		name     string
		noColor  bool
		env      map[string]string
		expected string
	}{
		{"Default is dark", false, nil, "dark"},
		{"Flag disables colors", true, map[string]string{EnvTheme: "light"}, "none"},
		{"NO_COLOR disables colors", false, map[string]string{"NO_COLOR": "1"}, "none"},
		{"Empty NO_COLOR still disables colors", false, map[string]string{"NO_COLOR": ""}, "none"},
		{"Theme from environment", false, map[string]string{EnvTheme: "light"}, "light"},
		{"Unknown theme from environment", false, map[string]string{EnvTheme: "neon"}, "dark"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetenv(t, "NO_COLOR")
			unsetenv(t, EnvTheme)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			InitTheme(tt.noColor)
			if got := GetCurrentTheme().Name; got != tt.expected {
				t.Errorf("InitTheme(%v) with %v: got %q, want %q", tt.noColor, tt.env, got, tt.expected)
			}
		})
	}
}

func TestThemeColors(t *testing.T) {
	for _, th := range []Theme{DarkTheme, LightTheme} {
		if th.Primary == "" || th.Success == "" || th.Error == "" || th.Reset == "" {
			t.Errorf("%s theme has empty colors: %+v", th.Name, th)
		}
	}
	if NoColorTheme != (Theme{Name: "none"}) {
		t.Errorf("NoColorTheme should only carry its name: %+v", NoColorTheme)
	}
}

func TestColorFunctions(t *testing.T) {
	originalTheme := GetCurrentTheme()
	defer SetCurrentTheme(originalTheme)

	SetTheme("light")
	got := []string{ColorReset(), ColorRed(), ColorGreen(), ColorYellow(), ColorBlue(), ColorMagenta(), ColorCyan(), ColorBold(), ColorUnderline()}
	want := []string{LightTheme.Reset, LightTheme.Error, LightTheme.Success, LightTheme.Warning, LightTheme.Primary, LightTheme.Info, LightTheme.Secondary, LightTheme.Bold, LightTheme.Underline}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("color %d = %q, want %q", i, got[i], want[i])
		}
	}

	SetTheme("none")
	if ColorReset()+ColorGreen()+ColorUnderline() != "" {
		t.Error("the none theme must emit no escape codes")
	}
}
