package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/armkell/vellum/pkg/factory"
	"github.com/armkell/vellum/pkg/llms"
)

var (
	generateConfig string
	generateEnv    string
	generateStop   []string
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt> [prompt...]",
	Short: "Run prompts through the configured generator",
	Long: `Run a batch of prompts through the generator described by the config file
and print each prompt's candidates. For kind "vllm" this launches the local
engine and loads the model weights before the first completion.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateConfig, "config", "c", "vellum.yaml", "path to generator config file")
	generateCmd.Flags().StringVar(&generateEnv, "env", ".env", "path to .env file (ignored when missing)")
	generateCmd.Flags().StringSliceVar(&generateStop, "stop", nil, "stop sequences, override the configured defaults")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadDotEnv(generateEnv); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	cfg, err := factory.Load(generateConfig)
	if err != nil {
		return err
	}

	gen, err := factory.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeGenerator(gen)

	var opts []llms.CallOption
	if cmd.Flags().Changed("stop") {
		opts = append(opts, llms.WithStop(generateStop))
	}

	result, err := gen.Generate(cmd.Context(), args, opts...)
	if err != nil {
		return err
	}

	for i, group := range result.Generations {
		fmt.Fprintf(cmd.OutOrStdout(), "--- prompt %d ---\n", i)
		for _, g := range group {
			fmt.Fprintln(cmd.OutOrStdout(), g.Text)
		}
	}

	return nil
}

// closeGenerator shuts down generators that own background resources, such
// as a launched engine process.
func closeGenerator(gen llms.Generator) {
	if c, ok := gen.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}
