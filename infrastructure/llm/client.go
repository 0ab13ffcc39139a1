// Package llm provides the provider-agnostic LLM client the pairwise judge
// runs on. Providers (OpenAI, Anthropic, Google) register themselves behind
// a common CoreLLM interface, and cross-cutting concerns such as retries,
// rate limiting, metrics, and tracing compose through a middleware chain.
//
// Basic usage:
//
//	client, err := llm.NewClient("openai", llm.ClientConfig{
//	    APIKey: cfg.APIKey,
//	    Model:  "gpt-4o-mini",
//	    Middleware: []llm.Middleware{
//	        llm.RetryMiddleware(3, 500*time.Millisecond, 10*time.Second),
//	        llm.RateLimitMiddleware(rate.Limit(5), 10),
//	    },
//	})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-arena/internal/ports"
)

// CoreLLM is the minimal surface a provider must implement. Middleware
// wraps any conforming implementation without knowing the provider.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the response text along with
	// input and output token counts.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (response string, tokensIn, tokensOut int, err error)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel switches the model for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior. Middleware in
// ClientConfig is applied in order, first entry outermost.
type Middleware func(CoreLLM) CoreLLM

// TokenEstimator approximates token counts when a provider does not report
// exact usage.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// ClientConfig holds everything needed to construct a provider-backed client.
// Configuration is explicit: nothing in this package reads the environment.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the provider model. Empty picks the provider default.
	Model string

	// BaseURL overrides the provider endpoint; empty uses the default.
	BaseURL string

	// Timeout bounds individual requests. Zero means no client timeout.
	Timeout time.Duration

	// TokenEstimator overrides the default character-heuristic estimator.
	TokenEstimator TokenEstimator

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Client implements ports.LLMClient on top of a middleware-wrapped CoreLLM.
type Client struct {
	core      CoreLLM
	estimator TokenEstimator
}

var _ ports.LLMClient = (*Client)(nil)

// NewClient assembles a client for the named provider type, wrapping the
// provider in the configured middleware chain.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	// Reverse application so the first middleware ends up outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	estimator := config.TokenEstimator
	if estimator == nil {
		estimator = &SimpleTokenEstimator{}
	}

	return &Client{core: core, estimator: estimator}, nil
}

// Complete sends a prompt and returns the response text, discarding token
// usage.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage sends a prompt and additionally returns input and
// output token counts.
func (c *Client) CompleteWithUsage(ctx context.Context, prompt string, options map[string]any) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens approximates the token count of text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.estimator.EstimateTokens(text), nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string { return c.core.GetModel() }

// SimpleTokenEstimator approximates tokens as one per four characters,
// which is close enough for English text cost estimates.
type SimpleTokenEstimator struct{}

// EstimateTokens returns the character-heuristic token count for text.
func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ProviderFactory builds a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory adds a provider type to the registry. Providers
// call this from init; applications may register custom providers too.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
