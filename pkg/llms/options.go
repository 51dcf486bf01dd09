package llms

import "github.com/armkell/vellum/pkg/sampling"

// CallOptions collects per-call generation settings. Adapters resolve them
// against their configured defaults: Params short-circuits merging entirely,
// Layers override defaults on collision, and the stop override is applied
// after every layer so it always wins.
type CallOptions struct {
	// Params, when non-nil, is used as the complete sampling parameter set.
	Params *sampling.Params

	// Layers are partial sampling overrides, applied in option order.
	Layers []sampling.Layer

	// Stop is the stop-sequence override; StopSet records that WithStop was
	// given even if Stop itself is empty.
	Stop    []string
	StopSet bool
}

// CallOption is a per-call override for a single Generate invocation.
type CallOption func(*CallOptions)

// ApplyOptions folds opts into a CallOptions.
func ApplyOptions(opts ...CallOption) CallOptions {
	var o CallOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// WithSamplingParams supplies a complete sampling parameter set, bypassing
// default/override merging entirely.
func WithSamplingParams(p sampling.Params) CallOption {
	return func(o *CallOptions) { o.Params = &p }
}

// WithStop sets the stop-sequence override for this call. It takes precedence
// over both configured defaults and other per-call overrides.
func WithStop(stop []string) CallOption {
	return func(o *CallOptions) {
		o.Stop = stop
		o.StopSet = true
	}
}

// WithLayer appends an arbitrary sampling override layer.
func WithLayer(l sampling.Layer) CallOption {
	return func(o *CallOptions) { o.Layers = append(o.Layers, l) }
}

// WithN overrides the number of candidates requested per prompt.
func WithN(n int) CallOption {
	return WithLayer(sampling.WithN(n))
}

// WithMaxTokens overrides the per-sequence token limit.
func WithMaxTokens(n int) CallOption {
	return WithLayer(sampling.WithMaxTokens(n))
}

// WithTemperature overrides the sampling temperature.
func WithTemperature(t float64) CallOption {
	return WithLayer(sampling.WithTemperature(t))
}

// WithTopP overrides the cumulative probability cutoff.
func WithTopP(v float64) CallOption {
	return WithLayer(sampling.WithTopP(v))
}

// WithTopK overrides the top-k cutoff (-1 disables).
func WithTopK(k int) CallOption {
	return WithLayer(sampling.WithTopK(k))
}

// WithPresencePenalty overrides the presence penalty.
func WithPresencePenalty(v float64) CallOption {
	return WithLayer(sampling.WithPresencePenalty(v))
}

// WithFrequencyPenalty overrides the frequency penalty.
func WithFrequencyPenalty(v float64) CallOption {
	return WithLayer(sampling.WithFrequencyPenalty(v))
}
