package main

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/armkell/vellum/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "vellum",
	Short:   "Client adapters for a local vLLM engine",
	Long:    "vellum runs prompt batches through a local vLLM engine or a vLLM server's OpenAI-compatible endpoint, and assembles release manifests.",
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(manifestCmd)
}

// loadDotEnv loads environment variables from path. If the file does not
// exist it is silently ignored so that .env files remain optional.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}
