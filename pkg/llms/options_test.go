package llms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armkell/vellum/pkg/llms"
	"github.com/armkell/vellum/pkg/sampling"
)

func TestApplyOptions_StopSetEvenWhenEmpty(t *testing.T) {
	got := llms.ApplyOptions(llms.WithStop(nil))

	assert.True(t, got.StopSet)
	assert.Nil(t, got.Stop)
}

func TestApplyOptions_SamplingParamsWholesale(t *testing.T) {
	p := sampling.Params{Temperature: 0.3, Stop: []string{"x"}}

	got := llms.ApplyOptions(llms.WithSamplingParams(p))

	require.NotNil(t, got.Params)
	assert.Equal(t, p, *got.Params)
}

func TestApplyOptions_LayersApplyInOrder(t *testing.T) {
	got := llms.ApplyOptions(
		llms.WithTemperature(0.1),
		llms.WithTemperature(0.9),
		llms.WithMaxTokens(32),
	)

	resolved := sampling.Merge(sampling.Params{}, got.Layers...)

	assert.Equal(t, 0.9, resolved.Temperature)
	assert.Equal(t, 32, resolved.MaxTokens)
}
