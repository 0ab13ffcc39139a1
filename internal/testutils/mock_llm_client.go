// Package testutils provides deterministic test doubles for the evaluation
// pipeline: a pattern-matching mock LLM client and scripted pairwise judges.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.LLMClient = (*MockLLMClient)(nil)

// MockLLMClient implements the LLMClient interface with deterministic
// responses selected by prompt substring matching. It records every prompt
// it sees so tests can assert on what the judge actually sent.
type MockLLMClient struct {
	mu        sync.Mutex
	model     string
	responses []MockResponse
	// fallback is returned when no pattern matches.
	fallback string
	// err, when set, fails every Complete call.
	err error
	// prompts holds every prompt passed to Complete, in call order.
	prompts []string
}

// MockResponse defines one pre-configured response pattern. Patterns match
// by substring against the prompt; the first match wins.
type MockResponse struct {
	Pattern  string
	Response string
}

// NewMockLLMClient creates a mock client that answers every prompt with a
// well-formed tie verdict until patterns are added.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{
		model:    model,
		fallback: `{"winner": "Tie", "explanation": "Both responses are equivalent."}`,
	}
}

// AddResponse appends a response pattern. Earlier patterns take precedence.
func (m *MockLLMClient) AddResponse(response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, response)
}

// SetFallback replaces the response returned when no pattern matches.
func (m *MockLLMClient) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// SetError makes every subsequent Complete call fail with err.
func (m *MockLLMClient) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Complete returns the first configured response whose pattern appears in
// the prompt, or the fallback when none match.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)

	if m.err != nil {
		return "", m.err
	}
	for _, r := range m.responses {
		if strings.Contains(prompt, r.Pattern) {
			return r.Response, nil
		}
	}
	return m.fallback, nil
}

// EstimateTokens uses the conventional 4-characters-per-token estimate.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Prompts returns a copy of every prompt seen so far.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns how many Complete calls were made.
func (m *MockLLMClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
