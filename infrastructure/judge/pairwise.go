// Package judge implements the pairwise LLM judge: given a question and
// two responses, a stronger model decides which response is better and
// explains why. The judge is stateless per call and safe for concurrent
// use; it never corrects for position bias itself.
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var _ ports.PairwiseJudge = (*PairwiseJudge)(nil)

// Default request parameters for judge calls. Zero temperature keeps
// verdicts as reproducible as the backing model allows.
const (
	DefaultTemperature = 0.0
	DefaultMaxTokens   = 512
)

// Config parameterizes a PairwiseJudge.
type Config struct {
	// Criteria is the grading measure interpolated into the system prompt.
	// Empty selects DefaultCriteria.
	Criteria string `yaml:"criteria"`

	// Temperature for judge calls (0.0-1.0).
	Temperature float64 `yaml:"temperature" validate:"min=0.0,max=1.0"`

	// MaxTokens bounds the judge's explanation length.
	MaxTokens int `yaml:"max_tokens" validate:"omitempty,min=50,max=4000"`
}

// DefaultConfig returns the judge configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Criteria:    DefaultCriteria,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// PairwiseJudge compares two responses using an LLM client and returns a
// structured decision. Transport and parse failures propagate as errors;
// the judge never substitutes a default verdict.
type PairwiseJudge struct {
	llm        ports.LLMClient
	config     Config
	systemTmpl *template.Template
	userTmpl   *template.Template
	validate   *validator.Validate
}

// NewPairwiseJudge creates a judge over the given LLM client.
func NewPairwiseJudge(llm ports.LLMClient, config Config) (*PairwiseJudge, error) {
	if llm == nil {
		return nil, fmt.Errorf("LLM client cannot be nil")
	}
	if config.Criteria == "" {
		config.Criteria = DefaultCriteria
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxTokens
	}

	v := validator.New()
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid judge configuration: %w", err)
	}

	systemTmpl, err := template.New("system").Parse(systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse system prompt template: %w", err)
	}
	userTmpl, err := template.New("user").Parse(userPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user prompt template: %w", err)
	}

	return &PairwiseJudge{
		llm:        llm,
		config:     config,
		systemTmpl: systemTmpl,
		userTmpl:   userTmpl,
		validate:   v,
	}, nil
}

// Judge compares responseA and responseB as answers to question.
// responseA is always presented to the model as "A".
func (j *PairwiseJudge) Judge(ctx context.Context, question, responseA, responseB string) (domain.Decision, error) {
	var systemBuf bytes.Buffer
	if err := j.systemTmpl.Execute(&systemBuf, struct{ Criteria string }{j.config.Criteria}); err != nil {
		return domain.Decision{}, fmt.Errorf("failed to render system prompt: %w", err)
	}

	var userBuf bytes.Buffer
	err := j.userTmpl.Execute(&userBuf, struct {
		Question, ResponseA, ResponseB string
	}{question, responseA, responseB})
	if err != nil {
		return domain.Decision{}, fmt.Errorf("failed to render judge prompt: %w", err)
	}

	options := map[string]any{
		"system":      systemBuf.String(),
		"temperature": j.config.Temperature,
		"max_tokens":  j.config.MaxTokens,
	}
	if supportsJSONMode(j.llm.GetModel()) {
		options["response_format"] = map[string]string{"type": "json_object"}
	}

	response, err := j.llm.Complete(ctx, userBuf.String(), options)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("judge call failed: %w", err)
	}

	return j.parseDecision(response)
}

// parseDecision extracts and validates the JSON verdict from the model's
// raw response.
func (j *PairwiseJudge) parseDecision(response string) (domain.Decision, error) {
	jsonStr := extractJSON(response)
	if jsonStr == "" {
		return domain.Decision{}, fmt.Errorf("no JSON object found in judge response (%d chars)", len(response))
	}

	var decision domain.Decision
	if err := json.Unmarshal([]byte(jsonStr), &decision); err != nil {
		return domain.Decision{}, fmt.Errorf("failed to parse judge response: %w", err)
	}

	if err := j.validate.Struct(decision); err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %q", domain.ErrUnknownWinner, decision.Winner)
	}

	return decision, nil
}

// supportsJSONMode guesses whether the model accepts a JSON response_format
// option. Heuristic by model family; providers ignore unknown options.
func supportsJSONMode(model string) bool {
	lower := strings.ToLower(model)
	return strings.Contains(lower, "gpt") || strings.Contains(lower, "claude")
}

// extractJSON pulls a JSON object out of a response that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if idx := strings.Index(response, "```json"); idx != -1 {
		rest := response[idx+7:]
		if end := strings.Index(rest, "```"); end != -1 {
			return strings.TrimSpace(rest[:end])
		}
	}

	if idx := strings.Index(response, "```"); idx != -1 {
		rest := response[idx+3:]
		if nl := strings.Index(rest, "\n"); nl != -1 {
			rest = rest[nl+1:]
		}
		if end := strings.Index(rest, "```"); end != -1 {
			candidate := strings.TrimSpace(rest[:end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}

	// Walk to the matching closing brace, skipping braces inside strings.
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return ""
}
