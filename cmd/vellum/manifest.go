package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/armkell/vellum/pkg/manifest"
)

var (
	manifestOut          string
	manifestName         string
	manifestAuthor       string
	manifestLicense      string
	manifestVersionFile  string
	manifestReadme       string
	manifestRequirements string
)

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Assemble the release manifest",
	Long: `Assemble release metadata from the version file, README, and requirements
list, and write it as YAML. Fails when any input is missing or the version
string cannot be found.`,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().StringVarP(&manifestOut, "out", "o", "", "output file (default stdout)")
	manifestCmd.Flags().StringVar(&manifestName, "name", "vellum", "package name")
	manifestCmd.Flags().StringVar(&manifestAuthor, "author", "vellum authors", "package author")
	manifestCmd.Flags().StringVar(&manifestLicense, "license", "Apache 2.0", "package license")
	manifestCmd.Flags().StringVar(&manifestVersionFile, "version-file", "internal/version/version.go", "source file carrying the version string")
	manifestCmd.Flags().StringVar(&manifestReadme, "readme", "README.md", "README file")
	manifestCmd.Flags().StringVar(&manifestRequirements, "requirements", "requirements.txt", "engine sidecar requirements file")
}

func runManifest(cmd *cobra.Command, _ []string) error {
	m, err := manifest.Load(manifest.Options{
		Name:             manifestName,
		Author:           manifestAuthor,
		License:          manifestLicense,
		VersionFile:      manifestVersionFile,
		ReadmeFile:       manifestReadme,
		RequirementsFile: manifestRequirements,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if manifestOut != "" {
		f, err := os.Create(manifestOut) //nolint:gosec // output path comes from the CLI flag
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		out = f
	}

	return m.WriteYAML(out)
}
