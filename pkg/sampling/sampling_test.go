package sampling_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/armkell/vellum/pkg/sampling"
)

func TestMerge_LayerPrecedence(t *testing.T) {
	base := sampling.Params{
		N:           1,
		Temperature: 1.0,
		TopP:        1.0,
		TopK:        -1,
		MaxTokens:   512,
		Stop:        []string{"###"},
	}

	got := sampling.Merge(base,
		sampling.WithTemperature(0.5),
		sampling.WithStop([]string{"short"}),
		sampling.WithStop([]string{"END"}), // later layers win
	)

	assert.Equal(t, 0.5, got.Temperature)
	assert.Equal(t, []string{"END"}, got.Stop)
	assert.Equal(t, 512, got.MaxTokens) // untouched fields come from base
	assert.Equal(t, -1, got.TopK)
}

func TestMerge_DoesNotMutateBase(t *testing.T) {
	base := sampling.Params{Stop: []string{"a"}}

	got := sampling.Merge(base, sampling.WithTemperature(0.2))
	got.Stop[0] = "mutated"

	assert.Equal(t, []string{"a"}, base.Stop)
	assert.Equal(t, 0.0, base.Temperature)
}

func TestMerge_NilLayersIgnored(t *testing.T) {
	base := sampling.Params{N: 2}

	got := sampling.Merge(base, nil, sampling.WithN(4), nil)

	assert.Equal(t, 4, got.N)
}
