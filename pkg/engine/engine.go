package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPython  = "python3"
	defaultHost    = "127.0.0.1"
	defaultPort    = 8000
	defaultStartup = 5 * time.Minute

	serverModule = "vllm.entrypoints.api_server"
)

// Options configure a locally launched engine server.
type Options struct {
	// Model is the name or path of the HuggingFace model to serve.
	Model string

	// TensorParallelSize is the number of GPUs for distributed execution.
	TensorParallelSize int

	// TrustRemoteCode allows remote code when downloading the model and
	// tokenizer.
	TrustRemoteCode bool

	// DType is the data type for model weights and activations.
	DType string

	// DownloadDir is where model weights are downloaded and loaded from.
	DownloadDir string

	// ExtraArgs are raw flags appended to the server command line untouched.
	ExtraArgs []string

	Host string // Listen host (default 127.0.0.1).
	Port int    // Listen port (default 8000).

	// Python is the interpreter used to probe and launch the engine
	// (default "python3").
	Python string

	// StartupTimeout bounds the wait for the health endpoint. Model weights
	// load during startup, so the default is generous (5 minutes).
	StartupTimeout time.Duration
}

// Engine owns a launched engine server process and the client attached to it.
type Engine struct {
	*HTTPClient

	cmd *exec.Cmd
}

// CheckInstalled verifies that the vllm python package can be imported with
// the given interpreter. An empty interpreter falls back to "python3".
func CheckInstalled(python string) error {
	if python == "" {
		python = defaultPython
	}

	if err := exec.Command(python, "-c", "import vllm").Run(); err != nil {
		return fmt.Errorf("engine: could not import the vllm python package: %w; install it with `pip install vllm`", err)
	}

	return nil
}

// Launch verifies the engine package is installed, starts its API server
// with flags derived from opts, and waits for the health endpoint to come
// up. Startup loads the model weights and is expensive; launch once and
// reuse the returned Engine across calls.
func Launch(ctx context.Context, opts Options) (*Engine, error) {
	if opts.Model == "" {
		return nil, errors.New("engine: model is required")
	}

	if err := CheckInstalled(opts.Python); err != nil {
		return nil, err
	}

	python := opts.Python
	if python == "" {
		python = defaultPython
	}

	host := opts.Host
	if host == "" {
		host = defaultHost
	}

	port := opts.Port
	if port == 0 {
		port = defaultPort
	}

	cmd := exec.Command(python, opts.args(host, port)...)
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("engine: start server: %w", err)
	}

	e := &Engine{
		HTTPClient: Attach(fmt.Sprintf("http://%s:%d", host, port)),
		cmd:        cmd,
	}

	timeout := opts.StartupTimeout
	if timeout == 0 {
		timeout = defaultStartup
	}

	if err := e.waitReady(ctx, timeout); err != nil {
		_ = e.Close()
		return nil, err
	}

	return e, nil
}

// args builds the server command line from the options.
func (o Options) args(host string, port int) []string {
	args := []string{
		"-m", serverModule,
		"--model", o.Model,
		"--host", host,
		"--port", strconv.Itoa(port),
	}

	if o.TensorParallelSize > 1 {
		args = append(args, "--tensor-parallel-size", strconv.Itoa(o.TensorParallelSize))
	}
	if o.TrustRemoteCode {
		args = append(args, "--trust-remote-code")
	}
	if o.DType != "" {
		args = append(args, "--dtype", o.DType)
	}
	if o.DownloadDir != "" {
		args = append(args, "--download-dir", o.DownloadDir)
	}

	return append(args, o.ExtraArgs...)
}

// waitReady polls the health endpoint until it answers, the timeout lapses,
// or ctx is canceled.
func (e *Engine) waitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := e.Health(ctx); err == nil {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("engine: server at %s not ready after %s", e.BaseURL, timeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("engine: wait for server: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close terminates the server process and reaps it.
func (e *Engine) Close() error {
	if e.cmd == nil || e.cmd.Process == nil {
		return nil
	}

	if err := e.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("engine: kill server: %w", err)
	}

	if err := e.cmd.Wait(); err != nil && !isKilled(err) {
		return fmt.Errorf("engine: wait server: %w", err)
	}

	return nil
}

// isKilled reports whether err is the expected exit error after Kill.
func isKilled(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) || strings.Contains(err.Error(), "signal: killed")
}
