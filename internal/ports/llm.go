// Package ports defines the interfaces between the evaluation core and
// its infrastructure: LLM providers, the pairwise judge, and metrics.
// Core packages depend on these contracts only, so tests can substitute
// deterministic stubs for every remote dependency.
package ports

import (
	"context"
	"time"
)

// LLMClient is the capability for talking to a large language model
// provider. Implementations handle authentication, request formatting,
// and response parsing; they must be safe for concurrent use.
type LLMClient interface {
	// Complete sends a prompt and returns the generated text.
	// The options map carries provider-tunable parameters; common keys
	// are "temperature" (float64), "max_tokens" (int), "model" (string),
	// and "system" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// EstimateTokens approximates the token count of text, for cost
	// estimation before a request is made.
	EstimateTokens(text string) (int, error)

	// GetModel returns the model identifier in use, for logging.
	GetModel() string
}

// MetricsCollector records operational metrics for judge and LLM calls.
// Implementations integrate with a monitoring backend such as Prometheus.
// A nil collector is always acceptable; callers must tolerate its absence.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric by value.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram distribution.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
