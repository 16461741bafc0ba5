package buildinfo

import (
	"strings"

	"github.com/flarebyte/gitcred/cli"
)

// Package buildinfo exposes version metadata for gitcred. Values can be
// overridden at build time via -ldflags. cli.Version and cli.Date are honored
// as fallbacks for release scripts that only know about the cli package.

var (
	// Version is the semantic version or custom string. Empty means cli.Version, then "dev".
	Version = ""
	// Commit is the VCS commit hash (optional).
	Commit = ""
	// Date is the build time in RFC3339 or similar (optional). Falls back to cli.Date.
	Date = ""
	// BuiltBy is an optional builder identifier (optional).
	BuiltBy = ""
)

// ResolvedVersion returns Version, then cli.Version, then "dev".
func ResolvedVersion() string {
	if Version != "" {
		return Version
	}
	if cli.Version != "" {
		return cli.Version
	}
	return "dev"
}

// ResolvedDate returns Date or cli.Date.
func ResolvedDate() string {
	if Date != "" {
		return Date
	}
	return cli.Date
}

// Summary returns a concise single-line version string.
func Summary() string {
	v := ResolvedVersion()
	parts := make([]string, 0, 2)
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, "commit="+c)
	}
	if d := ResolvedDate(); d != "" {
		parts = append(parts, "date="+d)
	}
	if len(parts) > 0 {
		v += " (" + strings.Join(parts, ", ") + ")"
	}
	return v
}
