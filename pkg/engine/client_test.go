package engine_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armkell/vellum/pkg/engine"
	"github.com/armkell/vellum/pkg/sampling"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *engine.HTTPClient {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return engine.Attach(srv.URL)
}

func readBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()

	var req map[string]any
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}

	return req
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestGenerate_StripsEchoedPrompt(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		req := readBody(t, r)
		assert.Equal(t, "Hello", req["prompt"])
		assert.Equal(t, float64(2), req["n"])
		assert.Equal(t, 0.5, req["temperature"])
		assert.Equal(t, []any{"END"}, req["stop"])

		// The native API echoes the prompt ahead of each candidate.
		writeJSON(t, w, map[string]any{"text": []string{"Hello world", "Hello there"}})
	})

	params := sampling.Params{N: 2, Temperature: 0.5, Stop: []string{"END"}}

	outputs, err := client.Generate(context.Background(), []string{"Hello"}, params)
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	assert.Equal(t, "Hello", outputs[0].Prompt)
	require.Len(t, outputs[0].Outputs, 2)
	assert.Equal(t, " world", outputs[0].Outputs[0].Text)
	assert.Equal(t, " there", outputs[0].Outputs[1].Text)
	assert.Equal(t, 1, outputs[0].Outputs[1].Index)
}

func TestGenerate_BatchKeepsPromptOrder(t *testing.T) {
	var requests int

	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		requests++

		req := readBody(t, r)
		prompt, _ := req["prompt"].(string)

		writeJSON(t, w, map[string]any{"text": []string{prompt + "!"}})
	})

	prompts := []string{"a", "b", "c"}

	outputs, err := client.Generate(context.Background(), prompts, sampling.Params{N: 1})
	require.NoError(t, err)

	assert.Equal(t, 3, requests) // one request per prompt
	require.Len(t, outputs, 3)
	for i, p := range prompts {
		assert.Equal(t, p, outputs[i].Prompt)
		require.Len(t, outputs[i].Outputs, 1)
		assert.Equal(t, "!", outputs[i].Outputs[0].Text)
	}
}

func TestGenerate_HTTPError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "engine on fire", http.StatusInternalServerError)
	})

	_, err := client.Generate(context.Background(), []string{"x"}, sampling.Params{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}

func TestHealth(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, client.Health(context.Background()))
}

func TestHealth_Unavailable(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestLaunch_RequiresModel(t *testing.T) {
	_, err := engine.Launch(context.Background(), engine.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")
}

func TestLaunch_EngineNotInstalled(t *testing.T) {
	_, err := engine.Launch(context.Background(), engine.Options{
		Model:          "facebook/opt-125m",
		Python:         "/nonexistent/python3",
		StartupTimeout: time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pip install vllm")
}

func TestCheckInstalled_MissingInterpreter(t *testing.T) {
	err := engine.CheckInstalled("/nonexistent/python3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not import the vllm python package")
	assert.Contains(t, err.Error(), "pip install vllm")
}
