package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/testutils"
)

func answers(prefix string, n int) []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, n)
	for i := range out {
		out[i] = domain.AnswerRecord{
			QuestionID: fmt.Sprintf("q%d", i+1),
			Question:   fmt.Sprintf("question %d", i+1),
			Response:   fmt.Sprintf("%s answer %d", prefix, i+1),
		}
	}
	return out
}

func newScheduler(t *testing.T, judge *testutils.JudgeStub, config SchedulerConfig) (*Scheduler, *domain.EloSystem) {
	t.Helper()
	elo := domain.NewEloSystem(domain.EloConfig{})
	s, err := NewScheduler(judge, elo, config)
	require.NoError(t, err)
	return s, elo
}

func TestNewScheduler_Validation(t *testing.T) {
	elo := domain.NewEloSystem(domain.EloConfig{})

	_, err := NewScheduler(nil, elo, SchedulerConfig{})
	assert.Error(t, err, "nil judge must be rejected")

	_, err = NewScheduler(&testutils.JudgeStub{}, nil, SchedulerConfig{})
	assert.Error(t, err, "nil rating engine must be rejected")

	_, err = NewScheduler(&testutils.JudgeStub{}, elo, SchedulerConfig{Align: "positional"})
	assert.Error(t, err, "unknown align mode must be rejected")
}

func TestComparePair_JudgesEveryQuestionTwice(t *testing.T) {
	judge := &testutils.JudgeStub{}
	s, elo := newScheduler(t, judge, SchedulerConfig{})

	results, err := s.ComparePair(context.Background(),
		"m1", answers("m1", 3), "m2", answers("m2", 3))
	require.NoError(t, err)

	assert.Equal(t, 6, judge.CallCount(), "each question is judged in both orders")
	assert.Len(t, results, 6)
	assert.Len(t, elo.History(), 6, "every verdict produces a rating update")
}

func TestComparePair_IndexAlignmentTruncates(t *testing.T) {
	judge := &testutils.JudgeStub{}
	s, _ := newScheduler(t, judge, SchedulerConfig{Align: AlignByIndex})

	results, err := s.ComparePair(context.Background(),
		"m1", answers("m1", 5), "m2", answers("m2", 3))
	require.NoError(t, err)

	assert.Equal(t, 6, judge.CallCount(), "5v3 truncates to 3 questions, 6 calls")
	assert.Len(t, results, 6)
}

func TestComparePair_QuestionIDAlignment(t *testing.T) {
	judge := &testutils.JudgeStub{}
	s, _ := newScheduler(t, judge, SchedulerConfig{})

	qaA := []domain.AnswerRecord{
		{QuestionID: "q1", Question: "first", Response: "a1"},
		{QuestionID: "q2", Question: "second", Response: "a2"},
		{QuestionID: "q9", Question: "orphan", Response: "a9"},
	}
	// B holds the shared questions in a different order plus its own orphan.
	qaB := []domain.AnswerRecord{
		{QuestionID: "q7", Question: "other orphan", Response: "b7"},
		{QuestionID: "q2", Question: "second", Response: "b2"},
		{QuestionID: "q1", Question: "first", Response: "b1"},
	}

	results, err := s.ComparePair(context.Background(), "m1", qaA, "m2", qaB)
	require.NoError(t, err)
	require.Len(t, results, 4, "only the two shared questions are compared")

	// Results follow A's question order; natural entry precedes swapped.
	assert.Equal(t, "q1", results[0].QuestionID)
	assert.False(t, results[0].Swapped)
	assert.Equal(t, "a1", results[0].ResponseA)
	assert.Equal(t, "b1", results[0].ResponseB)

	assert.Equal(t, "q1", results[1].QuestionID)
	assert.True(t, results[1].Swapped)
	assert.Equal(t, "b1", results[1].ResponseA, "swapped entry presents B's response first")

	assert.Equal(t, "q2", results[2].QuestionID)
}

func TestComparePair_NoComparableQuestions(t *testing.T) {
	judge := &testutils.JudgeStub{}
	s, _ := newScheduler(t, judge, SchedulerConfig{})

	results, err := s.ComparePair(context.Background(),
		"m1", []domain.AnswerRecord{{QuestionID: "q1", Question: "q", Response: "a"}},
		"m2", []domain.AnswerRecord{{QuestionID: "q2", Question: "q", Response: "b"}})
	require.NoError(t, err)
	assert.Nil(t, results)
	assert.Zero(t, judge.CallCount())
}

func TestComparePair_SwappedVerdictRemapsToOriginalNaming(t *testing.T) {
	// The judge always prefers m1's answer text no matter which position
	// it is shown in.
	prefer := &testutils.PreferResponseJudge{Favored: "Paris"}
	elo := domain.NewEloSystem(domain.EloConfig{})
	s, err := NewScheduler(prefer, elo, SchedulerConfig{})
	require.NoError(t, err)

	qaA := []domain.AnswerRecord{{QuestionID: "q1", Question: "Capital of France?", Response: "Paris"}}
	qaB := []domain.AnswerRecord{{QuestionID: "q1", Question: "Capital of France?", Response: "Berlin"}}

	results, err := s.ComparePair(context.Background(), "m1", qaA, "m2", qaB)
	require.NoError(t, err)
	require.Len(t, results, 2)

	natural, swapped := results[0], results[1]

	assert.Equal(t, domain.WinnerA, natural.JudgeDecision)
	assert.False(t, natural.Swapped)
	assert.Equal(t, "m1", natural.ModelA)

	// Swapped call showed Berlin first, so the judge said "B"; remapping
	// to original labeling makes m1 (original A) the real winner.
	assert.Equal(t, domain.WinnerB, swapped.JudgeDecision)
	assert.True(t, swapped.Swapped)
	assert.Equal(t, "m2", swapped.ModelA, "swapped entry lists the second participant as model_a")
	assert.Equal(t, domain.WinnerA, swapped.RealWinner)

	// Both updates credit m1 with a win: two K=32 wins from equal footing.
	history := elo.History()
	require.Len(t, history, 2)
	for _, update := range history {
		assert.Equal(t, "m1", update.ModelA, "updates stay in original pair order")
		assert.Equal(t, 1.0, update.ScoreA)
	}
	assert.InDelta(t, 1516.0, history[0].RatingA, 1e-9)
	ra, _ := elo.Rating("m1")
	rb, _ := elo.Rating("m2")
	assert.Greater(t, ra, 1516.0, "the second win gains less but still gains")
	assert.Less(t, rb, 1484.0)
}

func TestComparePair_Deterministic(t *testing.T) {
	// Verdicts depend only on the question, so two runs with concurrent
	// completion in arbitrary order must produce identical output.
	script := func(ctx context.Context, question, a, b string) (domain.Decision, error) {
		switch question {
		case "question 1":
			return domain.Decision{Winner: domain.WinnerA, Explanation: "x"}, nil
		case "question 2":
			return domain.Decision{Winner: domain.WinnerB, Explanation: "x"}, nil
		default:
			return domain.Decision{Winner: domain.WinnerTie, Explanation: "x"}, nil
		}
	}

	run := func() ([]domain.ComparisonResult, []domain.RatingUpdate) {
		judge := &testutils.JudgeStub{Fn: script}
		elo := domain.NewEloSystem(domain.EloConfig{})
		s, err := NewScheduler(judge, elo, SchedulerConfig{MaxConcurrency: 4})
		require.NoError(t, err)

		results, err := s.ComparePair(context.Background(),
			"m1", answers("m1", 4), "m2", answers("m2", 4))
		require.NoError(t, err)
		return results, elo.History()
	}

	results1, history1 := run()
	results2, history2 := run()

	assert.Equal(t, results1, results2, "report rows must not depend on completion order")
	assert.Equal(t, history1, history2, "rating history must not depend on completion order")
}

func TestComparePair_JudgeFailureSkipsWithoutUpdate(t *testing.T) {
	var calls atomic.Int64
	judge := &testutils.JudgeStub{
		Fn: func(ctx context.Context, question, a, b string) (domain.Decision, error) {
			if calls.Add(1) == 1 {
				return domain.Decision{}, errors.New("model returned garbage")
			}
			return domain.Decision{Winner: domain.WinnerTie, Explanation: "x"}, nil
		},
	}
	s, elo := newScheduler(t, judge, SchedulerConfig{MaxConcurrency: 1})

	results, err := s.ComparePair(context.Background(),
		"m1", answers("m1", 2), "m2", answers("m2", 2))
	require.NoError(t, err, "a failed verdict never aborts the pair")

	assert.Len(t, results, 3, "the failed comparison is dropped")
	assert.Len(t, elo.History(), 3, "no rating update for the failed comparison")
}

func TestComparePair_CancellationAbortsPair(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	judge := &testutils.JudgeStub{
		Fn: func(ctx context.Context, question, a, b string) (domain.Decision, error) {
			cancel()
			<-ctx.Done()
			return domain.Decision{}, ctx.Err()
		},
	}
	s, elo := newScheduler(t, judge, SchedulerConfig{MaxConcurrency: 1})

	results, err := s.ComparePair(ctx, "m1", answers("m1", 3), "m2", answers("m2", 3))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "m1 vs m2")
	assert.Nil(t, results, "partial results are discarded on abort")
	assert.Empty(t, elo.History(), "no rating updates survive an aborted pair")
}

// recordingMetrics captures RecordCounter calls for label assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	counters []counterCall
}

type counterCall struct {
	metric string
	labels map[string]string
}

func (r *recordingMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, counterCall{metric: metric, labels: labels})
}

func (r *recordingMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (r *recordingMetrics) RecordHistogram(string, float64, map[string]string)     {}

func (r *recordingMetrics) byMetric(metric string) []counterCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []counterCall
	for _, c := range r.counters {
		if c.metric == metric {
			out = append(out, c)
		}
	}
	return out
}

func TestComparePair_MetricStatusLabels(t *testing.T) {
	var calls atomic.Int64
	judge := &testutils.JudgeStub{
		Fn: func(ctx context.Context, question, a, b string) (domain.Decision, error) {
			if calls.Add(1) == 1 {
				return domain.Decision{}, errors.New("model returned garbage")
			}
			return domain.Decision{Winner: domain.WinnerTie, Explanation: "x"}, nil
		},
	}
	metrics := &recordingMetrics{}
	elo := domain.NewEloSystem(domain.EloConfig{})
	s, err := NewScheduler(judge, elo, SchedulerConfig{MaxConcurrency: 1, Metrics: metrics})
	require.NoError(t, err)

	_, err = s.ComparePair(context.Background(),
		"m1", answers("m1", 2), "m2", answers("m2", 2))
	require.NoError(t, err)

	failures := metrics.byMetric("judge_failures_total")
	require.Len(t, failures, 1)
	assert.Equal(t, "failed", failures[0].labels["status"],
		"failure counters must not carry the recorded status")
	assert.Equal(t, "m1:m2", failures[0].labels["model"])

	recorded := metrics.byMetric("comparisons_total")
	require.Len(t, recorded, 3)
	for _, c := range recorded {
		assert.Equal(t, "recorded", c.labels["status"])
	}
}

func TestAlignAnswers_IndexModeKeepsBothIDs(t *testing.T) {
	judge := &testutils.JudgeStub{}
	s, _ := newScheduler(t, judge, SchedulerConfig{Align: AlignByIndex})

	qaA := []domain.AnswerRecord{{QuestionID: "a-1", Question: "q", Response: "ra"}}
	qaB := []domain.AnswerRecord{{QuestionID: "b-1", Question: "q", Response: "rb"}}

	results, err := s.ComparePair(context.Background(), "m1", qaA, "m2", qaB)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a-1", results[0].QuestionID, "natural entry carries A's id")
	assert.Equal(t, "b-1", results[1].QuestionID, "swapped entry carries B's id")
}
