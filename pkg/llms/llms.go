package llms

import "context"

// Generation is a single candidate completion for one input prompt.
type Generation struct {
	Text string
}

// Result holds the outcome of a batch generation call. Generations contains
// one group per input prompt, in input order; each group holds that prompt's
// candidate completions.
type Result struct {
	Generations [][]Generation
}

// Generator runs a batch of prompts through a text generation backend.
type Generator interface {
	// Generate produces one generation group per prompt, preserving prompt
	// order. Backend failures propagate to the caller unmodified.
	Generate(ctx context.Context, prompts []string, opts ...CallOption) (Result, error)

	// Type reports a fixed tag identifying the backend variant.
	Type() string
}
