package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/ahrav/go-arena/internal/domain"
	"github.com/ahrav/go-arena/internal/ports"
)

// Report artifact names written into the report directory.
const (
	// PairwiseReportFile holds one ComparisonResult per line, all pairs
	// appended in processing order.
	PairwiseReportFile = "pairwise_results.jsonl"

	// RatingHistoryFile holds one RatingUpdate per line in chronological
	// application order.
	RatingHistoryFile = "elo_history.jsonl"

	// LeaderboardFile holds the final ranking as a single JSON document.
	LeaderboardFile = "leaderboard.json"
)

// ErrNotEnoughAnswerSets indicates the input directory held fewer than two
// answer-set files, so no pairwise comparison is possible.
var ErrNotEnoughAnswerSets = errors.New("input directory must contain at least two .jsonl answer sets")

// Runner orchestrates one evaluation run: it discovers participant answer
// sets, drives the scheduler across every unordered pair, and writes the
// three report artifacts. Pairs run sequentially; only the judge calls
// within a pair run concurrently.
type Runner struct {
	elo       *domain.EloSystem
	scheduler *Scheduler
	metrics   ports.MetricsCollector
}

// NewRunner creates a runner around an injected judge and rating engine.
func NewRunner(judge ports.PairwiseJudge, elo *domain.EloSystem, config RunConfig) (*Runner, error) {
	scheduler, err := NewScheduler(judge, elo, SchedulerConfig{
		MaxConcurrency: config.MaxConcurrency,
		Align:          config.Align,
		Metrics:        config.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Runner{elo: elo, scheduler: scheduler, metrics: config.Metrics}, nil
}

// Run evaluates every pair of answer sets in inputDir and, when reportDir
// is non-empty, writes the report artifacts there. The report directory is
// recreated from scratch so a run never merges with stale records.
// Returns the final standings sorted best first.
//
// An unexpected failure inside a pair aborts the run; earlier pairs'
// results stay in memory but no reports are written for an aborted run.
func (r *Runner) Run(ctx context.Context, inputDir, reportDir string) ([]domain.Standing, error) {
	log := clog.FromContext(ctx)

	files, err := discoverAnswerSets(inputDir)
	if err != nil {
		return nil, err
	}
	log.Infof("found %d answer sets in %s", len(files), inputDir)

	if reportDir != "" {
		if err := os.RemoveAll(reportDir); err != nil {
			return nil, fmt.Errorf("failed to clear report directory: %w", err)
		}
		if err := os.MkdirAll(reportDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	// Answer sets load lazily and cache by participant so a participant
	// appearing in many pairs parses once.
	loaded := make(map[string][]domain.AnswerRecord, len(files))
	load := func(path string) ([]domain.AnswerRecord, error) {
		name := participantName(path)
		if records, ok := loaded[name]; ok {
			return records, nil
		}
		records, err := LoadAnswerSet(ctx, path)
		if err != nil {
			return nil, err
		}
		loaded[name] = records
		return records, nil
	}

	var allResults []domain.ComparisonResult
	for i := 0; i < len(files); i++ {
		for j := i + 1; j < len(files); j++ {
			nameA, nameB := participantName(files[i]), participantName(files[j])

			qaA, err := load(files[i])
			if err != nil {
				return nil, err
			}
			qaB, err := load(files[j])
			if err != nil {
				return nil, err
			}

			log.Infof("comparing %s vs %s", nameA, nameB)
			results, err := r.scheduler.ComparePair(ctx, nameA, qaA, nameB, qaB)
			if err != nil {
				return nil, err
			}
			allResults = append(allResults, results...)
		}
	}

	standings := r.elo.Standings()

	if reportDir != "" {
		if err := writeJSONL(filepath.Join(reportDir, PairwiseReportFile), allResults); err != nil {
			return nil, err
		}
		if err := writeJSONL(filepath.Join(reportDir, RatingHistoryFile), r.elo.History()); err != nil {
			return nil, err
		}
		if err := writeLeaderboard(filepath.Join(reportDir, LeaderboardFile), standings); err != nil {
			return nil, err
		}
		log.Infof("reports written to %s", reportDir)
	}

	return standings, nil
}

// discoverAnswerSets lists the .jsonl files in dir in lexical order, so
// pair processing order is stable across runs.
func discoverAnswerSets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	if len(files) < 2 {
		return nil, fmt.Errorf("%w: found %d in %s", ErrNotEnoughAnswerSets, len(files), dir)
	}
	return files, nil
}

// participantName derives a participant's name from its answer-set file
// stem.
func participantName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// writeJSONL writes records one JSON document per line. HTML escaping is
// off so report content round-trips byte-identically with its inputs.
func writeJSONL[T any](path string, records []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	return f.Close()
}

// writeLeaderboard writes the standings as one indented JSON array.
func writeLeaderboard(path string, standings []domain.Standing) error {
	data, err := json.MarshalIndent(standings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
