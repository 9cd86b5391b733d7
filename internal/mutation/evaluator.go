package mutation

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Summary is the normalized record persisted after every evaluation,
// independent of the gate decision. Score is always a finite non-negative
// number; parse failures collapse to 0.
type Summary struct {
	Score      float64 `json:"score"`
	Threshold  float64 `json:"threshold"`
	Timestamp  string  `json:"timestamp"`
	ReportPath string  `json:"reportPath"`
}

// Outcome is an evaluation result: the persisted summary plus the gate
// decision. Passed is true when score >= threshold.
type Outcome struct {
	Summary Summary
	Passed  bool
}

// Evaluator turns whatever the mutation tool produced into one normalized
// decision. It never errors on bad report input; only persisting the summary
// can fail.
type Evaluator struct {
	candidates  []Candidate
	threshold   float64
	summaryPath string
	log         *zap.Logger
	now         func() time.Time
}

// NewEvaluator creates an evaluator over the given candidate reports.
// A nil logger disables diagnostics.
func NewEvaluator(candidates []Candidate, threshold float64, summaryPath string, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		candidates:  candidates,
		threshold:   threshold,
		summaryPath: summaryPath,
		log:         log,
		now:         time.Now,
	}
}

// Evaluate probes the candidates, extracts and clamps the score, persists the
// summary, and returns the gate decision.
func (e *Evaluator) Evaluate() (Outcome, error) {
	score, reportPath := e.extract()

	summary := Summary{
		Score:      score,
		Threshold:  e.threshold,
		Timestamp:  e.now().UTC().Format(time.RFC3339),
		ReportPath: reportPath,
	}
	if err := e.writeSummary(summary); err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Summary: summary,
		Passed:  score >= e.threshold,
	}, nil
}

// extract finds the first candidate that exists on disk and parses it. Later
// candidates are never consulted, even if the chosen one is unparseable.
func (e *Evaluator) extract() (score float64, reportPath string) {
	for _, c := range e.candidates {
		info, err := os.Stat(c.Path)
		if err != nil || info.IsDir() {
			continue
		}

		data, err := os.ReadFile(c.Path)
		if err != nil {
			e.log.Warn("mutation report unreadable", zap.String("path", c.Path), zap.Error(err))
			return 0, c.Path
		}

		parsed := parseReport(data, c.Format)
		if !parsed.ok {
			e.log.Warn("mutation report did not yield a score", zap.String("path", c.Path))
		}
		return clamp(parsed), c.Path
	}

	e.log.Warn("no mutation report found")
	return 0, ""
}

// clamp collapses an invalid parse to 0 and rounds a valid score to two
// decimals. Negative, NaN and infinite values are invalid.
func clamp(p parsedScore) float64 {
	if !p.ok {
		return 0
	}
	v := math.Round(p.value*100) / 100
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func (e *Evaluator) writeSummary(s Summary) (err error) {
	if err := os.MkdirAll(filepath.Dir(e.summaryPath), 0o755); err != nil {
		return fmt.Errorf("creating summary dir: %w", err)
	}

	f, err := os.Create(e.summaryPath)
	if err != nil {
		return fmt.Errorf("creating summary file: %w", err)
	}
	defer func() {
		cerr := f.Close()
		if err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
