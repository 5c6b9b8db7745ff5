// Package testutil provides helpers shared by the tests of several packages.
package testutil

import (
	"regexp"
	"strings"
	"testing"
)

// ansiRegex matches CSI sequences, including the private "?" parameters the
// spinner uses to hide and show the cursor.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)

// StripAnsiCodes removes ANSI escape codes from s so terminal output can be
// compared with plain text.
func StripAnsiCodes(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// AssertContainsAll reports every element of wants missing from output,
// once escape codes are stripped.
func AssertContainsAll(t testing.TB, output string, wants ...string) {
	t.Helper()
	plain := StripAnsiCodes(output)
	for _, want := range wants {
		if !strings.Contains(plain, want) {
			t.Errorf("output lacks %q:\n%s", want, plain)
		}
	}
}
