// Package sampling defines the generation-time controls passed to an
// inference engine and the layered merge that resolves them.
//
// A call site resolves its final Params with [Merge]: configured defaults as
// the base, per-call overrides as layers, and the stop-sequence override as
// the last layer so it wins over everything else. The precedence lives in the
// layer order, not in the layers themselves.
package sampling

// Params is one resolved set of sampling parameters for a generation call.
// Field names mirror the engine's request schema.
type Params struct {
	N                int      `json:"n"`
	BestOf           int      `json:"best_of,omitempty"`
	MaxTokens        int      `json:"max_tokens"`
	TopK             int      `json:"top_k"`
	TopP             float64  `json:"top_p"`
	Temperature      float64  `json:"temperature"`
	PresencePenalty  float64  `json:"presence_penalty"`
	FrequencyPenalty float64  `json:"frequency_penalty"`
	Stop             []string `json:"stop,omitempty"`
	IgnoreEOS        bool     `json:"ignore_eos,omitempty"`
	UseBeamSearch    bool     `json:"use_beam_search,omitempty"`
	Logprobs         int      `json:"logprobs,omitempty"`
}

// Layer is a partial override applied on top of a base Params.
type Layer func(*Params)

// Merge resolves a final Params from base plus override layers. Layers apply
// in order, later layers winning on collision. The base is copied, so neither
// it nor its stop slice is mutated.
func Merge(base Params, layers ...Layer) Params {
	p := base
	p.Stop = append([]string(nil), base.Stop...)

	for _, l := range layers {
		if l != nil {
			l(&p)
		}
	}

	return p
}

// WithN sets the number of output sequences returned per prompt.
func WithN(n int) Layer {
	return func(p *Params) { p.N = n }
}

// WithBestOf sets the number of sequences generated per prompt before the
// engine picks the n best.
func WithBestOf(b int) Layer {
	return func(p *Params) { p.BestOf = b }
}

// WithMaxTokens sets the maximum number of tokens generated per sequence.
func WithMaxTokens(n int) Layer {
	return func(p *Params) { p.MaxTokens = n }
}

// WithTopK sets the number of top tokens to consider (-1 disables).
func WithTopK(k int) Layer {
	return func(p *Params) { p.TopK = k }
}

// WithTopP sets the cumulative probability cutoff for token selection.
func WithTopP(v float64) Layer {
	return func(p *Params) { p.TopP = v }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Layer {
	return func(p *Params) { p.Temperature = t }
}

// WithPresencePenalty penalizes tokens already present in the output.
func WithPresencePenalty(v float64) Layer {
	return func(p *Params) { p.PresencePenalty = v }
}

// WithFrequencyPenalty penalizes tokens by their output frequency.
func WithFrequencyPenalty(v float64) Layer {
	return func(p *Params) { p.FrequencyPenalty = v }
}

// WithStop replaces the stop sequences wholesale.
func WithStop(stop []string) Layer {
	return func(p *Params) { p.Stop = stop }
}

// WithIgnoreEOS keeps the engine generating past the EOS token.
func WithIgnoreEOS(v bool) Layer {
	return func(p *Params) { p.IgnoreEOS = v }
}

// WithBeamSearch switches the engine from sampling to beam search.
func WithBeamSearch(v bool) Layer {
	return func(p *Params) { p.UseBeamSearch = v }
}

// WithLogprobs sets how many log probabilities to return per token.
func WithLogprobs(n int) Layer {
	return func(p *Params) { p.Logprobs = n }
}
