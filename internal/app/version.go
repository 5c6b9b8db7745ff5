// Package app wires configuration, the polynomial registry and the
// presentation layers into the qsag command.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/qsag/internal/app.Version=v0.3.0 -X github.com/agbru/qsag/internal/app.Commit=abc123" ./cmd/qsag
var (
	// Version is the semantic version of the application (e.g., "v1.0.0").
	Version = "dev"
	// Commit is the short Git commit hash.
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build.
	BuildDate = "unknown"
)

// VersionData is the version information in machine-readable form.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// HasVersionFlag reports whether args request the version, in any position
// (e.g., "qsag --server --version").
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-V" {
			return true
		}
	}
	return false
}

// HasJSONFlag reports whether args request JSON output.
func HasJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" || arg == "-json" {
			return true
		}
	}
	return false
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion writes the version information, as JSON when asJSON is set.
//
// Parameters:
//   - out: The writer to output version information to.
//   - asJSON: Whether to encode the information as a JSON object.
//
// Returns:
//   - error: An error if writing fails.
func PrintVersion(out io.Writer, asJSON bool) error {
	info := GetVersionInfo()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	_, err := fmt.Fprintf(out, "qsag %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n  OS/Arch:    %s/%s\n",
		info.Version, info.Commit, info.BuildDate, info.GoVersion, info.OS, info.Arch)
	return err
}
