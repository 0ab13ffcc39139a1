package ports

import (
	"context"

	"github.com/ahrav/go-arena/internal/domain"
)

// PairwiseJudge decides which of two responses answers a question better.
// Implementations are stateless per call apart from shared remote-model
// configuration and must be safe to invoke concurrently.
//
// The judge is positionally pure: responseA is always presented as "A" and
// responseB as "B". It never corrects for position bias itself; swapped-order
// double judging is the scheduler's responsibility.
//
// Any transport or parse failure must surface as an error. Implementations
// never fabricate a default decision, so the scheduler can distinguish a
// failed comparison from a judged one.
type PairwiseJudge interface {
	Judge(ctx context.Context, question, responseA, responseB string) (domain.Decision, error)
}

// JudgeFunc adapts a plain function to the PairwiseJudge interface,
// mirroring http.HandlerFunc. Tests use it for scripted judges.
type JudgeFunc func(ctx context.Context, question, responseA, responseB string) (domain.Decision, error)

// Judge calls f.
func (f JudgeFunc) Judge(ctx context.Context, question, responseA, responseB string) (domain.Decision, error) {
	return f(ctx, question, responseA, responseB)
}
