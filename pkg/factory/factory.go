// Package factory builds generators from declarative YAML configuration.
package factory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/armkell/vellum/pkg/llms"
	"github.com/armkell/vellum/pkg/llms/vllm"
	"github.com/armkell/vellum/pkg/llms/vllmopenai"
)

// Config describes one generator instance.
type Config struct {
	Kind    string `yaml:"kind"` // "vllm" or "vllm-openai".
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret

	// Engine construction settings (kind "vllm" only).
	Python             string   `yaml:"python"`
	TensorParallelSize int      `yaml:"tensor_parallel_size"`
	TrustRemoteCode    bool     `yaml:"trust_remote_code"`
	DType              string   `yaml:"dtype"`
	DownloadDir        string   `yaml:"download_dir"`
	EngineArgs         []string `yaml:"engine_args"`

	// Sampling defaults. Pointer fields distinguish "not set" from zero,
	// since 0 is a meaningful temperature and -1 a meaningful top-k.
	N           int      `yaml:"n"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	TopK        *int     `yaml:"top_k"`
	Stop        []string `yaml:"stop"`
}

// GeneratorFactory creates a Generator from a Config.
type GeneratorFactory func(ctx context.Context, cfg Config) (llms.Generator, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]GeneratorFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["vllm"] = newVLLM
		factories["vllm-openai"] = newVLLMOpenAI
	})
}

// Register registers a custom generator factory under the given kind. It can
// be called before New to extend the factory with additional backends.
func Register(kind string, factory GeneratorFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (GeneratorFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

// Load reads a YAML file and returns a Config. Environment variables
// referenced as ${VAR} or $VAR in the YAML are expanded before parsing, so
// API keys can live in the environment rather than in the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("factory: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("factory: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("factory: config: kind is required")
	}
	if c.Model == "" {
		return fmt.Errorf("factory: config: model is required")
	}
	if c.Kind == "vllm-openai" && c.BaseURL == "" {
		return fmt.Errorf("factory: config: base_url is required for kind %q", c.Kind)
	}

	return nil
}

// New validates cfg and builds the generator it describes.
func New(ctx context.Context, cfg Config) (llms.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("factory: unknown generator kind %q", cfg.Kind)
	}

	return f(ctx, cfg)
}

func newVLLM(ctx context.Context, cfg Config) (llms.Generator, error) {
	vc := vllm.DefaultConfig(cfg.Model)
	vc.Python = cfg.Python
	vc.TrustRemoteCode = cfg.TrustRemoteCode
	vc.DownloadDir = cfg.DownloadDir
	vc.EngineArgs = cfg.EngineArgs
	vc.Stop = cfg.Stop

	if cfg.TensorParallelSize > 0 {
		vc.TensorParallelSize = cfg.TensorParallelSize
	}
	if cfg.DType != "" {
		vc.DType = cfg.DType
	}
	if cfg.N > 0 {
		vc.N = cfg.N
	}
	if cfg.MaxTokens > 0 {
		vc.MaxNewTokens = cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		vc.Temperature = *cfg.Temperature
	}
	if cfg.TopP != nil {
		vc.TopP = *cfg.TopP
	}
	if cfg.TopK != nil {
		vc.TopK = *cfg.TopK
	}

	return vllm.New(ctx, vc)
}

func newVLLMOpenAI(_ context.Context, cfg Config) (llms.Generator, error) {
	oc := vllmopenai.DefaultConfig(cfg.BaseURL, cfg.APIKey, cfg.Model)
	oc.Stop = cfg.Stop

	if cfg.N > 0 {
		oc.N = cfg.N
	}
	if cfg.MaxTokens > 0 {
		oc.MaxTokens = cfg.MaxTokens
	}
	if cfg.Temperature != nil {
		oc.Temperature = *cfg.Temperature
	}
	if cfg.TopP != nil {
		oc.TopP = *cfg.TopP
	}

	return vllmopenai.New(oc), nil
}
