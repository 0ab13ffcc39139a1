package llm

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-arena/internal/ports"
)

// metricsLLM records request latency, counts, and token usage through a
// ports.MetricsCollector.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware records per-request metrics. A nil collector makes the
// middleware a passthrough.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

// DoRequest forwards the request and records latency, status, and token
// counters.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	start := time.Now()
	response, tokensIn, tokensOut, err := m.next.DoRequest(ctx, prompt, opts)
	if m.collector == nil {
		return response, tokensIn, tokensOut, err
	}

	status := "success"
	if err != nil {
		status = "error"
		var provErr *ProviderError
		if errors.As(err, &provErr) && provErr.Type == ErrorTypeRateLimit {
			status = "rate_limited"
		} else if ctx.Err() != nil {
			status = "canceled"
		}
	}

	labels := map[string]string{
		"model":  m.next.GetModel(),
		"status": status,
	}
	m.collector.RecordHistogram("llm_request_duration_seconds", time.Since(start).Seconds(), labels)
	m.collector.RecordCounter("llm_requests_total", 1, labels)
	if err == nil {
		m.collector.RecordCounter("llm_tokens_in_total", float64(tokensIn), labels)
		m.collector.RecordCounter("llm_tokens_out_total", float64(tokensOut), labels)
	}

	return response, tokensIn, tokensOut, err
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(s string) { m.next.SetModel(s) }
