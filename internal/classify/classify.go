// Package classify checks that a captured image shows what its slot asks for.
// It never blocks the user: uncertain or failed analysis is accepted.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/inspection-wizard/constants"
	"github.com/joseph-ayodele/inspection-wizard/internal/entity"
	"github.com/joseph-ayodele/inspection-wizard/internal/metrics"
)

type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeLowConfidence Outcome = "low_confidence"
	OutcomeFailed        Outcome = "failed"
)

// Result is advisory; Accepted=false informs the user but never prevents proceeding.
type Result struct {
	Accepted       bool
	Detected       constants.Category
	Confidence     float32
	MismatchReason string
	Guidance       string
	Outcome        Outcome
}

// Check converts r to the form stored on a photo.
func (r Result) Check() *entity.CaptureCheck {
	return &entity.CaptureCheck{
		Accepted:       r.Accepted,
		Detected:       r.Detected,
		Confidence:     r.Confidence,
		MismatchReason: r.MismatchReason,
	}
}

// Analysis is what an Analyzer saw in an image.
type Analysis struct {
	Category   constants.Category
	Confidence float32 // 0..1
}

// Analyzer inspects image bytes and guesses their content category.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte) (Analysis, error)
}

type Classifier struct {
	analyzer      Analyzer
	logger        *slog.Logger
	metrics       *metrics.Metrics
	minConfidence float32
}

// New builds a classifier. A nil analyzer uses the pixel heuristics.
func New(analyzer Analyzer, logger *slog.Logger, m *metrics.Metrics) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if analyzer == nil {
		analyzer = HeuristicAnalyzer{}
	}
	return &Classifier{analyzer: analyzer, logger: logger, metrics: m, minConfidence: 0.35}
}

// Classify never returns an error: analyzer errors and panics become an accepted unknown result.
func (c *Classifier) Classify(ctx context.Context, image []byte, expected constants.Slot) (res Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("classify.panic", "slot", expected, "panic", r)
			res = failOpen()
		}
		c.metrics.IncClassify(string(expected), string(res.Outcome))
		c.logger.Debug("classify.done",
			"slot", expected,
			"detected", res.Detected,
			"accepted", res.Accepted,
			"confidence", res.Confidence,
			"outcome", res.Outcome,
			"elapsed_ms", time.Since(start).Milliseconds())
	}()

	a, err := c.analyzer.Analyze(ctx, image)
	if err != nil {
		c.logger.Warn("classify.analyze.failed", "slot", expected, "error", err)
		return failOpen()
	}
	return c.judge(a, expected)
}

func (c *Classifier) judge(a Analysis, expected constants.Slot) Result {
	if a.Category == "" {
		a.Category = constants.CategoryUnknown
	}
	res := Result{
		Accepted:   true,
		Detected:   a.Category,
		Confidence: a.Confidence,
		Outcome:    OutcomeOK,
	}
	if a.Category == constants.CategoryUnknown {
		res.Outcome = OutcomeLowConfidence
		return res
	}
	if a.Confidence < c.minConfidence {
		res.Outcome = OutcomeLowConfidence
	}
	if Accepts(expected, a.Category) {
		return res
	}

	res.Accepted = false
	want := string(expected)
	if info, ok := constants.LookupSlot(expected); ok {
		want = info.Label
		res.Guidance = info.Description
	}
	res.MismatchReason = fmt.Sprintf("Expected %s, but the image looks like %s", want, describe(a.Category))
	return res
}

func failOpen() Result {
	return Result{
		Accepted:   true,
		Detected:   constants.CategoryUnknown,
		Confidence: 0,
		Outcome:    OutcomeFailed,
	}
}
