// Package manifest assembles release metadata for a distribution: the
// version string extracted from a source file, the long description from the
// README, the dependency list from a requirements file, and static package
// facts supplied by the caller.
package manifest

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// versionRe matches a quoted version assignment at the start of a line.
// Both the Go form (`Version = "X"`, possibly indented inside a const block)
// and the Python sidecar form (`__version__ = "X"`) are accepted.
var versionRe = regexp.MustCompile(`(?m)^\s*(?:__version__|Version)\s*=\s*['"]([^'"]*)['"]`)

// Manifest is the registered package metadata.
type Manifest struct {
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Author       string              `yaml:"author"`
	License      string              `yaml:"license"`
	Classifiers  []string            `yaml:"classifiers,omitempty"`
	Description  string              `yaml:"description,omitempty"`
	Requirements []string            `yaml:"requirements,omitempty"`
	PackageData  map[string][]string `yaml:"package_data,omitempty"`
}

// Options name the files and static facts a Manifest is assembled from.
type Options struct {
	Name        string
	Author      string
	License     string
	Classifiers []string
	PackageData map[string][]string

	VersionFile      string
	ReadmeFile       string
	RequirementsFile string
}

// FindVersion extracts the version string from the given source file. It
// fails with a descriptive error when no version assignment matches, rather
// than falling back to an empty or default value.
func FindVersion(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided build input
	if err != nil {
		return "", fmt.Errorf("manifest: read version file: %w", err)
	}

	m := versionRe.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("manifest: unable to find version string in %s", path)
	}

	return string(m[1]), nil
}

// ReadReadme returns the README contents as UTF-8 text.
func ReadReadme(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided build input
	if err != nil {
		return "", fmt.Errorf("manifest: read readme: %w", err)
	}

	return string(data), nil
}

// ReadRequirements returns the newline-delimited entries of a requirements
// file. The file is trimmed as a whole; interior lines are kept verbatim.
func ReadRequirements(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided build input
	if err != nil {
		return nil, fmt.Errorf("manifest: read requirements: %w", err)
	}

	return strings.Split(strings.TrimSpace(string(data)), "\n"), nil
}

// Load assembles a Manifest from the files named in opts. Any unreadable or
// malformed input is a hard failure.
func Load(opts Options) (Manifest, error) {
	version, err := FindVersion(opts.VersionFile)
	if err != nil {
		return Manifest{}, err
	}

	readme, err := ReadReadme(opts.ReadmeFile)
	if err != nil {
		return Manifest{}, err
	}

	requirements, err := ReadRequirements(opts.RequirementsFile)
	if err != nil {
		return Manifest{}, err
	}

	return Manifest{
		Name:         opts.Name,
		Version:      version,
		Author:       opts.Author,
		License:      opts.License,
		Classifiers:  opts.Classifiers,
		Description:  readme,
		Requirements: requirements,
		PackageData:  opts.PackageData,
	}, nil
}

// WriteYAML serializes m to w as YAML.
func (m Manifest) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)

	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}

	return enc.Close()
}
