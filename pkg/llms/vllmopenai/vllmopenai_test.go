package vllmopenai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armkell/vellum/pkg/llms"
	"github.com/armkell/vellum/pkg/llms/vllmopenai"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *vllmopenai.Generator) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := vllmopenai.DefaultConfig(srv.URL, "test-key", "facebook/opt-125m")

	return srv, vllmopenai.New(cfg)
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	return req
}

func writeChoices(t *testing.T, w http.ResponseWriter, texts ...string) {
	t.Helper()

	choices := make([]map[string]any, len(texts))
	for i, text := range texts {
		choices[i] = map[string]any{"text": text, "index": i, "finish_reason": "stop"}
	}

	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(map[string]any{
		"id":      "cmpl-1",
		"object":  "text_completion",
		"model":   "facebook/opt-125m",
		"choices": choices,
	})
	if err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestGenerate_SinglePrompt(t *testing.T) {
	_, gen := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		req := readBody(t, r)
		assert.Equal(t, "facebook/opt-125m", req["model"])
		assert.Equal(t, []any{"Hello"}, req["prompt"])

		// The logit bias feature stays disabled: no entry on the wire.
		_, present := req["logit_bias"]
		assert.False(t, present)

		writeChoices(t, w, " world")
	})

	result, err := gen.Generate(context.Background(), []string{"Hello"})
	require.NoError(t, err)

	require.Len(t, result.Generations, 1)
	require.Len(t, result.Generations[0], 1)
	assert.Equal(t, " world", result.Generations[0][0].Text)
}

func TestGenerate_BatchGroupsNPerPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		assert.Equal(t, float64(2), req["n"])

		writeChoices(t, w, "a0", "a1", "b0", "b1")
	}))
	t.Cleanup(srv.Close)

	cfg := vllmopenai.DefaultConfig(srv.URL, "test-key", "facebook/opt-125m")
	cfg.N = 2
	gen := vllmopenai.New(cfg)

	result, err := gen.Generate(context.Background(), []string{"a", "b"})
	require.NoError(t, err)

	require.Len(t, result.Generations, 2)
	// Every candidate is surfaced here, unlike the local engine adapter.
	assert.Equal(t, []llms.Generation{{Text: "a0"}, {Text: "a1"}}, result.Generations[0])
	assert.Equal(t, []llms.Generation{{Text: "b0"}, {Text: "b1"}}, result.Generations[1])
}

func TestGenerate_StopOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := readBody(t, r)
		assert.Equal(t, []any{"END"}, req["stop"])

		writeChoices(t, w, "done")
	}))
	t.Cleanup(srv.Close)

	cfg := vllmopenai.DefaultConfig(srv.URL, "test-key", "facebook/opt-125m")
	cfg.Stop = []string{"###"}
	gen := vllmopenai.New(cfg)

	_, err := gen.Generate(context.Background(), []string{"p"}, llms.WithStop([]string{"END"}))
	require.NoError(t, err)
}

func TestGenerate_ChoiceCountMismatch(t *testing.T) {
	_, gen := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeChoices(t, w, "only one")
	})

	_, err := gen.Generate(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 2 choices, got 1")
}

func TestGenerate_APIErrorPropagates(t *testing.T) {
	_, gen := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	})

	_, err := gen.Generate(context.Background(), []string{"p"})
	require.Error(t, err)
}

func TestNew_ReusesSuppliedClient(t *testing.T) {
	var hits int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		writeChoices(t, w, "ok")
	}))
	t.Cleanup(srv.Close)

	oc := openai.DefaultConfig("test-key")
	oc.BaseURL = srv.URL

	// BaseURL on the config points nowhere; only the supplied client can
	// reach the test server.
	cfg := vllmopenai.DefaultConfig("http://127.0.0.1:1", "test-key", "m")
	cfg.Client = openai.NewClientWithConfig(oc)

	gen := vllmopenai.New(cfg)

	_, err := gen.Generate(context.Background(), []string{"p"})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestInvocationParams_LogitBiasAlwaysNil(t *testing.T) {
	cfg := vllmopenai.DefaultConfig("http://localhost:8000/v1", "key", "m")
	cfg.Temperature = 0.2

	params := vllmopenai.New(cfg).InvocationParams()

	v, present := params["logit_bias"]
	require.True(t, present)
	assert.Nil(t, v)

	assert.Equal(t, "key", params["api_key"])
	assert.Equal(t, "http://localhost:8000/v1", params["api_base"])
	assert.Equal(t, "m", params["model"])
	assert.Equal(t, 0.2, params["temperature"])
}

func TestType(t *testing.T) {
	gen := vllmopenai.New(vllmopenai.DefaultConfig("http://localhost:8000/v1", "key", "m"))

	assert.Equal(t, "vllm-openai", gen.Type())
}
