// Package vllmopenai provides a Generator for a vLLM server's
// OpenAI-compatible completions endpoint.
//
// Request transport, retries, and response shaping belong to the underlying
// go-openai client; this adapter only assembles the invocation parameters
// and maps completions back into generation groups.
package vllmopenai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/armkell/vellum/pkg/llms"
	"github.com/armkell/vellum/pkg/sampling"
)

var _ llms.Generator = (*Generator)(nil)

// Config holds the connection settings and sampling defaults for the
// OpenAI-compatible endpoint.
type Config struct {
	// APIKey authenticates against the server. vLLM deployments commonly
	// accept any value here.
	APIKey string

	// BaseURL is the server's OpenAI-compatible root, e.g.
	// "http://localhost:8000/v1".
	BaseURL string

	// Model is the model name the server exposes.
	Model string

	N                int      // Candidates returned per prompt.
	BestOf           int      // Server-side candidates generated per prompt.
	MaxTokens        int      // Maximum tokens per completion.
	Temperature      float64  // Sampling temperature.
	TopP             float64  // Cumulative probability cutoff.
	PresencePenalty  float64  // Presence penalty.
	FrequencyPenalty float64  // Frequency penalty.
	Logprobs         int      // Log probabilities per token.
	Stop             []string // Default stop sequences.

	// Client, when set, is used verbatim instead of constructing one from
	// APIKey and BaseURL.
	Client *openai.Client
}

// DefaultConfig returns a Config with the stock completion defaults.
func DefaultConfig(baseURL, apiKey, model string) Config {
	return Config{
		APIKey:      apiKey,
		BaseURL:     baseURL,
		Model:       model,
		N:           1,
		BestOf:      1,
		MaxTokens:   256,
		Temperature: 0.7,
		TopP:        1.0,
	}
}

// Generator adapts the OpenAI-compatible completions endpoint to the
// llms.Generator interface.
type Generator struct {
	cfg    Config
	client *openai.Client
}

// New builds a Generator from cfg. A pre-built client on the config is
// reused unchanged.
func New(cfg Config) *Generator {
	client := cfg.Client
	if client == nil {
		oc := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}

		client = openai.NewClientWithConfig(oc)
	}

	return &Generator{cfg: cfg, client: client}
}

// InvocationParams returns the full parameter map sent on each call:
// credentials, model name, and the sampling defaults. The logit_bias entry
// is always present and always nil — the feature stays disabled regardless
// of configuration.
func (g *Generator) InvocationParams() map[string]any {
	return map[string]any{
		"api_key":           g.cfg.APIKey,
		"api_base":          g.cfg.BaseURL,
		"model":             g.cfg.Model,
		"n":                 g.cfg.N,
		"best_of":           g.cfg.BestOf,
		"max_tokens":        g.cfg.MaxTokens,
		"temperature":       g.cfg.Temperature,
		"top_p":             g.cfg.TopP,
		"presence_penalty":  g.cfg.PresencePenalty,
		"frequency_penalty": g.cfg.FrequencyPenalty,
		"logprobs":          g.cfg.Logprobs,
		"stop":              g.cfg.Stop,
		"logit_bias":        nil,
	}
}

// Generate sends the whole prompt batch in one completions request and
// returns one generation group per prompt, in prompt order. Unlike the local
// engine adapter, every requested candidate is surfaced. Client failures
// propagate to the caller unmodified.
func (g *Generator) Generate(ctx context.Context, prompts []string, opts ...llms.CallOption) (llms.Result, error) {
	params := g.resolveParams(llms.ApplyOptions(opts...))

	n := params.N
	if n < 1 {
		n = 1
	}

	resp, err := g.client.CreateCompletion(ctx, g.completionRequest(prompts, params))
	if err != nil {
		return llms.Result{}, err
	}

	if len(resp.Choices) < n*len(prompts) {
		return llms.Result{}, fmt.Errorf("vllmopenai: expected %d choices, got %d", n*len(prompts), len(resp.Choices))
	}

	// Choices arrive ordered by prompt, n per prompt.
	generations := make([][]llms.Generation, len(prompts))
	for i := range prompts {
		group := make([]llms.Generation, n)
		for j := 0; j < n; j++ {
			group[j] = llms.Generation{Text: resp.Choices[i*n+j].Text}
		}

		generations[i] = group
	}

	return llms.Result{Generations: generations}, nil
}

// resolveParams merges the config defaults with per-call overrides, the stop
// override last. A wholesale per-call params object bypasses merging.
func (g *Generator) resolveParams(call llms.CallOptions) sampling.Params {
	if call.Params != nil {
		return *call.Params
	}

	layers := call.Layers
	if call.StopSet {
		layers = append(layers, sampling.WithStop(call.Stop))
	}

	return sampling.Merge(g.defaultParams(), layers...)
}

func (g *Generator) defaultParams() sampling.Params {
	return sampling.Params{
		N:                g.cfg.N,
		BestOf:           g.cfg.BestOf,
		MaxTokens:        g.cfg.MaxTokens,
		TopP:             g.cfg.TopP,
		Temperature:      g.cfg.Temperature,
		PresencePenalty:  g.cfg.PresencePenalty,
		FrequencyPenalty: g.cfg.FrequencyPenalty,
		Logprobs:         g.cfg.Logprobs,
		Stop:             g.cfg.Stop,
	}
}

// completionRequest maps resolved sampling parameters onto the completions
// request. LogitBias is deliberately never set; see InvocationParams.
func (g *Generator) completionRequest(prompts []string, params sampling.Params) openai.CompletionRequest {
	return openai.CompletionRequest{
		Model:            g.cfg.Model,
		Prompt:           prompts,
		N:                params.N,
		BestOf:           params.BestOf,
		MaxTokens:        params.MaxTokens,
		Temperature:      float32(params.Temperature),
		TopP:             float32(params.TopP),
		PresencePenalty:  float32(params.PresencePenalty),
		FrequencyPenalty: float32(params.FrequencyPenalty),
		LogProbs:         params.Logprobs,
		Stop:             params.Stop,
	}
}

// Type reports the backend tag for this adapter.
func (g *Generator) Type() string { return "vllm-openai" }
