package config

import (
	"fmt"
	"os"
	"time"

	"github.com/comicbench/comicbench/internal/domain"
	"gopkg.in/yaml.v3"
)

// Models is the parsed models.yaml: the model table, the named rosters, and
// the per-provider rate limits plus the shared retry policy.
type Models struct {
	Models          map[string]*domain.ModelConfig `yaml:"models"`
	Phase1Models    []string                       `yaml:"phase1_models"`
	BenchmarkModels []string                       `yaml:"benchmark_models"`
	JudgeModel      string                         `yaml:"judge_model"`
	RateLimits      map[domain.Provider]int        `yaml:"rate_limits"`
	Retry           RetryPolicy                    `yaml:"retry"`
	Prompts         Prompts                        `yaml:"prompts"`
}

type RetryPolicy struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMS int     `yaml:"initial_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor"`
}

func (r RetryPolicy) InitialDelay() time.Duration {
	return time.Duration(r.InitialDelayMS) * time.Millisecond
}

type Prompts struct {
	ExplainComic string `yaml:"explain_comic"`
}

const (
	defaultMaxAttempts    = 3
	defaultInitialDelayMS = 1000
	defaultBackoffFactor  = 2.0
	defaultRateLimit      = 60 // requests per minute
)

func LoadModels(path string) (*Models, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read models config: %w", err)
	}
	return ParseModels(data)
}

func ParseModels(data []byte) (*Models, error) {
	var m Models
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse models YAML: %w", err)
	}

	if len(m.Models) == 0 {
		return nil, fmt.Errorf("models config has no models")
	}
	for name, mc := range m.Models {
		if mc == nil {
			return nil, fmt.Errorf("model %q has no definition", name)
		}
		mc.Name = name
		if !mc.Provider.IsValid() {
			return nil, fmt.Errorf("model %q has unknown provider %q", name, mc.Provider)
		}
		if mc.Model == "" {
			return nil, fmt.Errorf("model %q has no underlying model id", name)
		}
		if mc.APIKeyEnv == "" {
			return nil, fmt.Errorf("model %q has no api_key_env", name)
		}
	}

	for _, roster := range [][]string{m.Phase1Models, m.BenchmarkModels} {
		for _, name := range roster {
			if _, ok := m.Models[name]; !ok {
				return nil, fmt.Errorf("roster references unknown model %q", name)
			}
		}
	}
	if m.JudgeModel != "" {
		if _, ok := m.Models[m.JudgeModel]; !ok {
			return nil, fmt.Errorf("judge_model references unknown model %q", m.JudgeModel)
		}
	}

	if m.Retry.MaxAttempts <= 0 {
		m.Retry.MaxAttempts = defaultMaxAttempts
	}
	if m.Retry.InitialDelayMS <= 0 {
		m.Retry.InitialDelayMS = defaultInitialDelayMS
	}
	if m.Retry.BackoffFactor <= 0 {
		m.Retry.BackoffFactor = defaultBackoffFactor
	}

	return &m, nil
}

// Lookup returns the config for a named model.
func (m *Models) Lookup(name string) (*domain.ModelConfig, error) {
	mc, ok := m.Models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return mc, nil
}

// RateLimit returns the configured requests-per-minute ceiling for a
// provider, falling back to the default when unset.
func (m *Models) RateLimit(p domain.Provider) int {
	if limit, ok := m.RateLimits[p]; ok && limit > 0 {
		return limit
	}
	return defaultRateLimit
}

// Providers returns the set of providers referenced by the model table.
func (m *Models) Providers() []domain.Provider {
	seen := make(map[domain.Provider]struct{})
	providers := make([]domain.Provider, 0, 4)
	for _, mc := range m.Models {
		if _, ok := seen[mc.Provider]; ok {
			continue
		}
		seen[mc.Provider] = struct{}{}
		providers = append(providers, mc.Provider)
	}
	return providers
}
