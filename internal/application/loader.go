// Package application wires the evaluation run together: loading answer
// sets, scheduling pairwise comparisons, applying rating updates, and
// writing reports. It owns no remote dependencies of its own; the judge
// and rating engine are injected.
package application

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/ahrav/go-arena/internal/domain"
)

// maxLineBytes bounds a single JSONL line. RAG responses can be long, but
// anything past this is a corrupt file, not an answer.
const maxLineBytes = 4 * 1024 * 1024

// rawAnswer mirrors one JSONL line before validation. QuestionID stays a
// RawMessage so both string and numeric ids parse.
type rawAnswer struct {
	QuestionID json.RawMessage `json:"question_id"`
	Question   string          `json:"question"`
	Response   string          `json:"response"`
}

// LoadAnswerSet parses one participant's line-delimited answer file.
//
// Blank lines are ignored. A record missing question_id, question, or
// response is skipped with a warning; the rest of the file still loads.
// A structurally invalid line aborts the whole load with an error naming
// the file and 1-based line number, since a corrupt file cannot be
// trusted for any of its records.
func LoadAnswerSet(ctx context.Context, path string) ([]domain.AnswerRecord, error) {
	log := clog.FromContext(ctx)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open answer set: %w", err)
	}
	defer f.Close()

	var records []domain.AnswerRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var raw rawAnswer
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("%s line %d: invalid JSON: %w", path, lineNum, err)
		}

		id := coerceQuestionID(raw.QuestionID)
		if id == "" || raw.Question == "" || raw.Response == "" {
			log.Warnf("%s line %d is missing question_id, question, or response, skipped", path, lineNum)
			continue
		}

		records = append(records, domain.AnswerRecord{
			QuestionID: id,
			Question:   raw.Question,
			Response:   raw.Response,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return records, nil
}

// coerceQuestionID accepts a string or numeric question_id and returns its
// string form. Numbers keep their literal representation, so ids stay
// stable across load and report.
func coerceQuestionID(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return trimmed
}
