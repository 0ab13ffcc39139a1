package llm

import "sync"

// Default request parameters applied when the caller does not override them.
const (
	// DefaultMaxTokens bounds response length when unset by the caller.
	DefaultMaxTokens = 1024
)

// BaseProvider supplies the thread-safe model accessor shared by providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the currently configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel switches the model used by subsequent requests.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the normalized form of the per-request options map.
type RequestOptions struct {
	// Model overrides the provider's configured model for this request.
	Model string
	// MaxTokens bounds the generated response length.
	MaxTokens int
	// Temperature controls sampling randomness; nil keeps the provider
	// default.
	Temperature *float64
	// System carries the system prompt, where the provider supports one.
	System string
	// Extra holds provider-specific keys not covered above.
	Extra map[string]any
}

// ParseRequestOptions extracts the normalized options from a raw map,
// filling in the provider's configured model and package defaults.
func ParseRequestOptions(opts map[string]any, model string) RequestOptions {
	out := RequestOptions{
		Model:     extractString(opts, "model", model),
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens),
		System:    extractString(opts, "system", ""),
		Extra:     map[string]any{},
	}

	if v, ok := opts["temperature"]; ok {
		switch t := v.(type) {
		case float64:
			out.Temperature = &t
		case int:
			f := float64(t)
			out.Temperature = &f
		}
	}

	for k, v := range opts {
		switch k {
		case "model", "max_tokens", "system", "temperature":
		default:
			out.Extra[k] = v
		}
	}
	return out
}

func extractString(opts map[string]any, key, def string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return def
}

func extractInt(opts map[string]any, key string, def int) int {
	switch v := opts[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v > 0 {
			return int(v)
		}
	}
	return def
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// estimateTokens is the shared character-heuristic fallback used when a
// provider response omits usage counts.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}
