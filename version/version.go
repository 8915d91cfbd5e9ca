// Package version carries build information injected with -ldflags.
package version //nolint:revive // package name intentionally matches build-info convention

import "strings"

const devVersion = "dev"

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository string
	Version    string
	Commit     string
	Date       string
)

// String formats the build information for the named program, e.g.
// "localize v1.2.0 (abc123, 2026-01-01) github.com/pitabwire/localize".
func String(program string) string {
	v := Version
	if v == "" {
		v = devVersion
	}

	var b strings.Builder
	b.WriteString(program)
	b.WriteString(" ")
	b.WriteString(v)

	if Commit != "" {
		b.WriteString(" (")
		b.WriteString(Commit)
		if Date != "" {
			b.WriteString(", ")
			b.WriteString(Date)
		}
		b.WriteString(")")
	}
	if Repository != "" {
		b.WriteString(" ")
		b.WriteString(Repository)
	}
	return b.String()
}
