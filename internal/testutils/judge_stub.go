package testutils

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

var (
	_ ports.PairwiseJudge = (*JudgeStub)(nil)
	_ ports.PairwiseJudge = (*PreferResponseJudge)(nil)
)

// JudgeCall records the arguments of one Judge invocation.
type JudgeCall struct {
	Question  string
	ResponseA string
	ResponseB string
}

// JudgeStub is a scripted PairwiseJudge that delegates to Fn and records
// every call. It is safe for concurrent use, matching the scheduler's
// fan-out.
type JudgeStub struct {
	// Fn produces the verdict. When nil, every call returns a tie.
	Fn func(ctx context.Context, question, responseA, responseB string) (domain.Decision, error)

	mu    sync.Mutex
	calls []JudgeCall
}

// Judge records the call and delegates to Fn.
func (j *JudgeStub) Judge(ctx context.Context, question, responseA, responseB string) (domain.Decision, error) {
	j.mu.Lock()
	j.calls = append(j.calls, JudgeCall{Question: question, ResponseA: responseA, ResponseB: responseB})
	j.mu.Unlock()

	if j.Fn == nil {
		return domain.Decision{Winner: domain.WinnerTie, Explanation: "scripted tie"}, nil
	}
	return j.Fn(ctx, question, responseA, responseB)
}

// Calls returns a copy of every recorded invocation.
func (j *JudgeStub) Calls() []JudgeCall {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]JudgeCall, len(j.calls))
	copy(out, j.calls)
	return out
}

// CallCount returns how many Judge calls were made.
func (j *JudgeStub) CallCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.calls)
}

// PreferResponseJudge always picks the response containing Favored,
// regardless of presentation position, and ties when both or neither
// contain it. It simulates a consistent judge for position-bias and
// swapped-remap tests.
type PreferResponseJudge struct {
	// Favored is the substring identifying the preferred response.
	Favored string

	calls atomic.Int64
}

// Judge returns A or B according to which response contains the favored
// substring.
func (j *PreferResponseJudge) Judge(ctx context.Context, question, responseA, responseB string) (domain.Decision, error) {
	if ctx.Err() != nil {
		return domain.Decision{}, ctx.Err()
	}
	j.calls.Add(1)

	inA := j.Favored != "" && strings.Contains(responseA, j.Favored)
	inB := j.Favored != "" && strings.Contains(responseB, j.Favored)
	switch {
	case inA && !inB:
		return domain.Decision{Winner: domain.WinnerA, Explanation: "response A matches the preferred content"}, nil
	case inB && !inA:
		return domain.Decision{Winner: domain.WinnerB, Explanation: "response B matches the preferred content"}, nil
	default:
		return domain.Decision{Winner: domain.WinnerTie, Explanation: "neither response is preferred"}, nil
	}
}

// CallCount returns how many Judge calls were made.
func (j *PreferResponseJudge) CallCount() int { return int(j.calls.Load()) }
