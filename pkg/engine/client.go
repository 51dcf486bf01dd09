package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/armkell/vellum/pkg/sampling"
)

const (
	generatePath = "/generate"
	healthPath   = "/health"
)

// Client is the generation surface of a local inference engine. Callers hand
// it an ordered prompt batch and resolved sampling parameters and get back
// one output per prompt, in prompt order.
type Client interface {
	Generate(ctx context.Context, prompts []string, params sampling.Params) ([]RequestOutput, error)
}

// CompletionOutput is one candidate completion produced by the engine.
type CompletionOutput struct {
	Index int
	Text  string
}

// RequestOutput is the engine's result for a single prompt.
type RequestOutput struct {
	Prompt  string
	Outputs []CompletionOutput
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to a running engine server over its native REST API.
type HTTPClient struct {
	BaseURL string       // Server base URL (no trailing slash).
	Client  *http.Client // HTTP client; falls back to http.DefaultClient.
}

// Attach returns an HTTPClient for an engine server already listening at
// baseURL.
func Attach(baseURL string) *HTTPClient {
	return &HTTPClient{BaseURL: strings.TrimRight(baseURL, "/")}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	sampling.Params
}

// generateResponse mirrors the native API's shape: each entry of Text is the
// prompt concatenated with one candidate completion.
type generateResponse struct {
	Text []string `json:"text"`
}

// Generate sends each prompt to the engine's generate endpoint and collects
// the outputs in prompt order. The native API takes one prompt per request;
// batching at this layer is sequential, the engine itself schedules
// concurrently across requests.
func (c *HTTPClient) Generate(ctx context.Context, prompts []string, params sampling.Params) ([]RequestOutput, error) {
	outputs := make([]RequestOutput, 0, len(prompts))

	for _, prompt := range prompts {
		var resp generateResponse
		if err := c.postJSON(ctx, generatePath, generateRequest{Prompt: prompt, Params: params}, &resp); err != nil {
			return nil, err
		}

		out := RequestOutput{
			Prompt:  prompt,
			Outputs: make([]CompletionOutput, len(resp.Text)),
		}
		for i, text := range resp.Text {
			// The server echoes the prompt ahead of each completion.
			out.Outputs[i] = CompletionOutput{Index: i, Text: strings.TrimPrefix(text, prompt)}
		}

		outputs = append(outputs, out)
	}

	return outputs, nil
}

// Health checks the engine server's health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+healthPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine: health check status %d", resp.StatusCode)
	}

	return nil
}

// httpClient returns the configured client or http.DefaultClient.
func (c *HTTPClient) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	return http.DefaultClient
}

// postJSON marshals payload as JSON, sends a POST to the given path, checks
// for a 2xx status, and unmarshals the response body into dest.
func (c *HTTPClient) postJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("engine: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("engine: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("engine: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("engine: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("engine: decode response: %w", err)
	}

	return nil
}
