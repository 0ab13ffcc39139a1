package application

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// DefaultMaxConcurrency bounds simultaneous in-flight judge calls when the
// configuration does not say otherwise.
const DefaultMaxConcurrency = 8

// AlignMode selects how two answer sequences are matched up for comparison.
type AlignMode string

const (
	// AlignByQuestionID matches records sharing a question_id, in the
	// order of the first participant's file. This is the default: it is
	// robust against files whose question order differs.
	AlignByQuestionID AlignMode = "question_id"

	// AlignByIndex pairs records positionally, truncating to the shorter
	// sequence. Compatibility mode for answer sets generated in lockstep
	// from one question list; it silently assumes both files share the
	// same question order.
	AlignByIndex AlignMode = "index"
)

// SchedulerConfig parameterizes a Scheduler.
type SchedulerConfig struct {
	// MaxConcurrency caps simultaneous judge calls within one pair.
	// Zero selects DefaultMaxConcurrency.
	MaxConcurrency int

	// Align selects the answer alignment strategy. Empty selects
	// AlignByQuestionID.
	Align AlignMode

	// Metrics optionally records comparison counts and failures.
	Metrics ports.MetricsCollector
}

// Scheduler runs all judge calls for one participant pair and applies the
// outcomes to the rating engine in a deterministic order.
//
// Judge calls fan out under a bounded errgroup and complete in arbitrary
// order; outcomes are collected, sorted into canonical order (question
// index ascending, natural call before swapped call), and only then
// applied. Rating updates and report rows are therefore reproducible
// regardless of network timing.
type Scheduler struct {
	judge          ports.PairwiseJudge
	elo            *domain.EloSystem
	maxConcurrency int
	align          AlignMode
	metrics        ports.MetricsCollector
}

// NewScheduler creates a scheduler over the given judge and rating engine.
func NewScheduler(judge ports.PairwiseJudge, elo *domain.EloSystem, config SchedulerConfig) (*Scheduler, error) {
	if judge == nil {
		return nil, fmt.Errorf("judge cannot be nil")
	}
	if elo == nil {
		return nil, fmt.Errorf("rating engine cannot be nil")
	}

	maxConcurrency := config.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	align := config.Align
	if align == "" {
		align = AlignByQuestionID
	}
	if align != AlignByQuestionID && align != AlignByIndex {
		return nil, fmt.Errorf("unknown align mode: %s", align)
	}

	return &Scheduler{
		judge:          judge,
		elo:            elo,
		maxConcurrency: maxConcurrency,
		align:          align,
		metrics:        config.Metrics,
	}, nil
}

// alignedQuestion is one question both participants answered. The ids can
// differ only under index alignment, where each side keeps its own.
type alignedQuestion struct {
	idA       string
	idB       string
	question  string
	responseA string
	responseB string
}

// outcome tags a completed judge call with its canonical sort key.
type outcome struct {
	index    int
	swapped  bool
	decision domain.Decision
	err      error
}

// ComparePair judges every aligned question between the two participants
// twice (natural and swapped presentation order) and applies both outcomes
// as independent rating updates expressed in terms of the original (A, B)
// pair. The double judging intentionally scores each question twice so
// first-position bias cancels by symmetry.
//
// Individual judge failures are logged and skipped; they never abort the
// pair. Context cancellation (or any non-judge failure) cancels the
// remaining in-flight calls and discards the pair's partial results.
func (s *Scheduler) ComparePair(
	ctx context.Context,
	nameA string, qaA []domain.AnswerRecord,
	nameB string, qaB []domain.AnswerRecord,
) ([]domain.ComparisonResult, error) {
	log := clog.FromContext(ctx)

	aligned := s.alignAnswers(ctx, nameA, qaA, nameB, qaB)
	if len(aligned) == 0 {
		log.Warnf("models %s and %s share no comparable questions", nameA, nameB)
		return nil, nil
	}

	outcomes := make([]outcome, 0, 2*len(aligned))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	for i, q := range aligned {
		for _, swapped := range []bool{false, true} {
			g.Go(func() error {
				first, second := q.responseA, q.responseB
				if swapped {
					first, second = second, first
				}

				decision, err := s.judge.Judge(gctx, q.question, first, second)
				if err != nil && gctx.Err() != nil {
					// Not a judge verdict problem: the pair is being torn
					// down. Propagate so siblings unwind.
					return gctx.Err()
				}

				mu.Lock()
				outcomes = append(outcomes, outcome{index: i, swapped: swapped, decision: decision, err: err})
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("comparison %s vs %s aborted: %w", nameA, nameB, err)
	}

	// Canonical order: question index ascending, natural before swapped.
	// This makes rating updates and report rows independent of completion
	// order.
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].index != outcomes[j].index {
			return outcomes[i].index < outcomes[j].index
		}
		return !outcomes[i].swapped && outcomes[j].swapped
	})

	results := make([]domain.ComparisonResult, 0, len(outcomes))
	for _, oc := range outcomes {
		q := aligned[oc.index]

		if oc.err != nil {
			if oc.swapped {
				log.Errorf("scoring failed: %s vs %s (swapped, question %s): %v", nameB, nameA, q.idB, oc.err)
			} else {
				log.Errorf("scoring failed: %s vs %s (question %s): %v", nameA, nameB, q.idA, oc.err)
			}
			s.count("judge_failures_total", nameA, nameB, "failed")
			continue
		}

		if !oc.swapped {
			if _, _, err := s.elo.Update(nameA, nameB, oc.decision.Winner.Score()); err != nil {
				return nil, fmt.Errorf("rating update for %s vs %s: %w", nameA, nameB, err)
			}
			results = append(results, domain.ComparisonResult{
				QuestionID:       q.idA,
				ModelA:           nameA,
				ModelB:           nameB,
				ResponseA:        q.responseA,
				ResponseB:        q.responseB,
				JudgeDecision:    oc.decision.Winner,
				JudgeExplanation: oc.decision.Explanation,
				Swapped:          false,
			})
		} else {
			// The judge saw B's response as "A" and A's as "B". Remap the
			// verdict to original naming before scoring.
			real := oc.decision.Winner.Swapped()
			if _, _, err := s.elo.Update(nameA, nameB, real.Score()); err != nil {
				return nil, fmt.Errorf("rating update for %s vs %s: %w", nameA, nameB, err)
			}
			results = append(results, domain.ComparisonResult{
				QuestionID:       q.idB,
				ModelA:           nameB,
				ModelB:           nameA,
				ResponseA:        q.responseB,
				ResponseB:        q.responseA,
				JudgeDecision:    oc.decision.Winner,
				JudgeExplanation: oc.decision.Explanation,
				Swapped:          true,
				RealWinner:       real,
			})
		}
		s.count("comparisons_total", nameA, nameB, "recorded")
	}

	return results, nil
}

// alignAnswers builds the aligned question list for one pair under the
// configured alignment mode, warning about records left unmatched.
func (s *Scheduler) alignAnswers(
	ctx context.Context,
	nameA string, qaA []domain.AnswerRecord,
	nameB string, qaB []domain.AnswerRecord,
) []alignedQuestion {
	log := clog.FromContext(ctx)

	if s.align == AlignByIndex {
		if len(qaA) != len(qaB) {
			log.Warnf("models %s and %s have different number of questions (%d vs %d), taking the smaller size",
				nameA, nameB, len(qaA), len(qaB))
		}
		n := min(len(qaA), len(qaB))
		aligned := make([]alignedQuestion, n)
		for i := 0; i < n; i++ {
			aligned[i] = alignedQuestion{
				idA:       qaA[i].QuestionID,
				idB:       qaB[i].QuestionID,
				question:  qaA[i].Question,
				responseA: qaA[i].Response,
				responseB: qaB[i].Response,
			}
		}
		return aligned
	}

	// Question-id alignment: follow A's order, match against B by id.
	// First occurrence wins on duplicate ids.
	byID := make(map[string]domain.AnswerRecord, len(qaB))
	for _, b := range qaB {
		if _, ok := byID[b.QuestionID]; !ok {
			byID[b.QuestionID] = b
		}
	}

	aligned := make([]alignedQuestion, 0, min(len(qaA), len(qaB)))
	matched := make(map[string]bool, len(qaA))
	for _, a := range qaA {
		b, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if matched[a.QuestionID] {
			continue
		}
		matched[a.QuestionID] = true
		aligned = append(aligned, alignedQuestion{
			idA:       a.QuestionID,
			idB:       b.QuestionID,
			question:  a.Question,
			responseA: a.Response,
			responseB: b.Response,
		})
	}

	if unmatchedA := len(qaA) - len(aligned); unmatchedA > 0 {
		log.Warnf("model %s has %d question(s) with no match in %s, skipped", nameA, unmatchedA, nameB)
	}
	if unmatchedB := len(qaB) - len(aligned); unmatchedB > 0 {
		log.Warnf("model %s has %d question(s) with no match in %s, skipped", nameB, unmatchedB, nameA)
	}
	return aligned
}

func (s *Scheduler) count(metric, nameA, nameB, status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCounter(metric, 1, map[string]string{
		"model":  nameA + ":" + nameB,
		"status": status,
	})
}
