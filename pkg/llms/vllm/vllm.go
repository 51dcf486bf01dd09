// Package vllm provides a Generator backed by a locally running vLLM engine.
package vllm

import (
	"context"
	"fmt"

	"github.com/armkell/vellum/pkg/engine"
	"github.com/armkell/vellum/pkg/llms"
	"github.com/armkell/vellum/pkg/sampling"
)

var _ llms.Generator = (*Generator)(nil)

// Config holds the engine construction settings and the sampling defaults
// applied to every Generate call. It is read once at construction and not
// mutated afterwards.
type Config struct {
	// Model is the name or path of a HuggingFace Transformers model.
	Model string

	// TensorParallelSize is the number of GPUs to use for distributed
	// execution with tensor parallelism.
	TensorParallelSize int

	// TrustRemoteCode allows remote code when downloading the model and
	// tokenizer.
	TrustRemoteCode bool

	// N is the number of output sequences returned per prompt.
	N int

	// BestOf is the number of sequences generated per prompt before the
	// engine keeps the n best.
	BestOf int

	// PresencePenalty penalizes new tokens already present in the output.
	PresencePenalty float64

	// FrequencyPenalty penalizes new tokens by their output frequency.
	FrequencyPenalty float64

	// Temperature controls the randomness of sampling.
	Temperature float64

	// TopP is the cumulative probability cutoff for token selection.
	TopP float64

	// TopK is the number of top tokens to consider (-1 disables).
	TopK int

	// UseBeamSearch switches from sampling to beam search.
	UseBeamSearch bool

	// Stop lists strings that end generation when produced.
	Stop []string

	// IgnoreEOS keeps generating past the EOS token.
	IgnoreEOS bool

	// MaxNewTokens is the maximum number of tokens generated per sequence.
	MaxNewTokens int

	// Logprobs is the number of log probabilities returned per token.
	Logprobs int

	// DType is the data type for model weights and activations.
	DType string

	// DownloadDir is where model weights are downloaded and loaded from.
	DownloadDir string

	// EngineArgs are raw flags passed through to the engine server untouched.
	EngineArgs []string

	// Python is the interpreter used to launch the engine (default "python3").
	Python string

	// Client, when set, is adopted verbatim and field-driven engine
	// construction is skipped entirely.
	Client engine.Client

	// SamplingParams, when set, is used as-is on every call, bypassing
	// parameter merging.
	SamplingParams *sampling.Params
}

// DefaultConfig returns a Config for model with the engine's stock sampling
// defaults.
func DefaultConfig(model string) Config {
	return Config{
		Model:              model,
		TensorParallelSize: 1,
		N:                  1,
		Temperature:        1.0,
		TopP:               1.0,
		TopK:               -1,
		MaxNewTokens:       512,
		DType:              "auto",
	}
}

// Generator adapts a local vLLM engine to the llms.Generator interface.
type Generator struct {
	cfg    Config
	client engine.Client
	owned  *engine.Engine // set when the generator launched the engine itself
}

// New builds a Generator from cfg. When cfg.Client is nil it launches the
// engine server, which loads the model weights — expensive, and deliberately
// done once here rather than per call. Construction fails if the vllm python
// package is not importable.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	g := &Generator{cfg: cfg, client: cfg.Client}

	if g.client == nil {
		eng, err := engine.Launch(ctx, engine.Options{
			Model:              cfg.Model,
			TensorParallelSize: cfg.TensorParallelSize,
			TrustRemoteCode:    cfg.TrustRemoteCode,
			DType:              cfg.DType,
			DownloadDir:        cfg.DownloadDir,
			ExtraArgs:          cfg.EngineArgs,
			Python:             cfg.Python,
		})
		if err != nil {
			return nil, err
		}

		g.client = eng
		g.owned = eng
	}

	return g, nil
}

// Client returns the engine handle the generator calls into.
func (g *Generator) Client() engine.Client { return g.client }

// Generate runs the prompt batch through the engine and returns one
// generation group per prompt, in prompt order. Each group carries exactly
// the engine's first candidate, even when n asked for more. Engine failures
// propagate to the caller unmodified.
func (g *Generator) Generate(ctx context.Context, prompts []string, opts ...llms.CallOption) (llms.Result, error) {
	params := g.resolveParams(llms.ApplyOptions(opts...))

	outputs, err := g.client.Generate(ctx, prompts, params)
	if err != nil {
		return llms.Result{}, err
	}

	generations := make([][]llms.Generation, len(outputs))
	for i, out := range outputs {
		if len(out.Outputs) == 0 {
			return llms.Result{}, fmt.Errorf("vllm: engine returned no candidates for prompt %d", i)
		}

		generations[i] = []llms.Generation{{Text: out.Outputs[0].Text}}
	}

	return llms.Result{Generations: generations}, nil
}

// resolveParams picks the sampling parameters for one call. A pre-built
// params object on the config wins outright, then one supplied per call;
// otherwise the config defaults are merged with per-call layers, the stop
// override last so it beats everything.
func (g *Generator) resolveParams(call llms.CallOptions) sampling.Params {
	if g.cfg.SamplingParams != nil {
		return *g.cfg.SamplingParams
	}

	if call.Params != nil {
		return *call.Params
	}

	layers := call.Layers
	if call.StopSet {
		layers = append(layers, sampling.WithStop(call.Stop))
	}

	return sampling.Merge(g.defaultParams(), layers...)
}

// defaultParams maps the config's sampling fields into a Params.
func (g *Generator) defaultParams() sampling.Params {
	return sampling.Params{
		N:                g.cfg.N,
		BestOf:           g.cfg.BestOf,
		MaxTokens:        g.cfg.MaxNewTokens,
		TopK:             g.cfg.TopK,
		TopP:             g.cfg.TopP,
		Temperature:      g.cfg.Temperature,
		PresencePenalty:  g.cfg.PresencePenalty,
		FrequencyPenalty: g.cfg.FrequencyPenalty,
		Stop:             g.cfg.Stop,
		IgnoreEOS:        g.cfg.IgnoreEOS,
		UseBeamSearch:    g.cfg.UseBeamSearch,
		Logprobs:         g.cfg.Logprobs,
	}
}

// Close shuts down the engine server if this generator launched it. Engines
// supplied via Config.Client stay untouched.
func (g *Generator) Close() error {
	if g.owned == nil {
		return nil
	}

	return g.owned.Close()
}

// Type reports the backend tag for this adapter.
func (g *Generator) Type() string { return "vllm" }
