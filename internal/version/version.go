// Package version records the release version of the module. The manifest
// tool extracts the string below from this file, so the assignment must stay
// on its own line in the `Version = "..."` form.
package version

const (
	// Version is the semantic version of the current release.
	Version = "0.4.0"
)
