package application

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// RunConfig carries the settings for one evaluation run. It loads from a
// YAML file and is overridable field by field from command-line flags.
type RunConfig struct {
	// Provider selects the judge's LLM backend.
	Provider string `yaml:"provider" validate:"required,oneof=openai anthropic google"`

	// Model names the judge model. Empty selects the provider's default.
	Model string `yaml:"model"`

	// MaxConcurrency caps simultaneous judge calls within one pair.
	// Zero selects DefaultMaxConcurrency.
	MaxConcurrency int `yaml:"max_concurrency" validate:"omitempty,min=1,max=256"`

	// Align selects the answer alignment strategy. Empty selects
	// AlignByQuestionID.
	Align AlignMode `yaml:"align" validate:"omitempty,oneof=question_id index"`

	// Elo tunes the rating engine. Zero values select the standard
	// constants (K=32, initial 1500).
	Elo domain.EloConfig `yaml:"elo"`

	// Criteria overrides the judge's grading measure. Empty keeps the
	// judge's built-in criteria.
	Criteria string `yaml:"criteria"`

	// Temperature for judge calls.
	Temperature float64 `yaml:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens bounds the judge's explanation length.
	MaxTokens int `yaml:"max_tokens" validate:"omitempty,min=50,max=4000"`

	// Metrics optionally records run counters and latencies. Set by the
	// assembling binary, never from YAML.
	Metrics ports.MetricsCollector `yaml:"-"`
}

// DefaultRunConfig returns the configuration used when no file or flags
// override it.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Provider:       "openai",
		MaxConcurrency: DefaultMaxConcurrency,
		Align:          AlignByQuestionID,
	}
}

// LoadRunConfig reads and validates a YAML run configuration. Fields the
// file omits keep their defaults.
func LoadRunConfig(path string) (RunConfig, error) {
	config := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return RunConfig{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return RunConfig{}, err
	}
	return config, nil
}

// Validate checks the configuration's field constraints.
func (c RunConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid run configuration: %w", err)
	}
	return nil
}
