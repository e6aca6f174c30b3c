package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
)

const (
	FallbackScore    = 50.0
	FallbackFeedback = "Answer evaluated"

	operationGrade = "grade"
)

type DegradedReason string

const (
	ReasonMalformed     DegradedReason = "malformed_response"
	ReasonUnavailable   DegradedReason = "service_unavailable"
	ReasonRefused       DegradedReason = "refused"
	ReasonTimeout       DegradedReason = "timeout"
	ReasonNotConfigured DegradedReason = "not_configured"
)

type GradeRequest struct {
	Question       string
	Reference      string
	KeyPoints      []string
	CommonMistakes []string
	StudentAnswer  string
}

// Verdict is either a genuine model evaluation or, when Degraded is set, the
// fixed fallback tagged with the reason grading could not complete.
type Verdict struct {
	Score     float64
	Feedback  string
	IsCorrect bool

	Degraded bool
	Reason   DegradedReason

	Calls   int
	Latency time.Duration
	Model   string
}

// FallbackVerdict is the placeholder recorded when grading fails.
func FallbackVerdict(reason DegradedReason) Verdict {
	return Verdict{
		Score:     FallbackScore,
		Feedback:  FallbackFeedback,
		IsCorrect: false,
		Degraded:  true,
		Reason:    reason,
	}
}

// Grader scores free-text answers with the generative model. It never
// returns an error; failures produce a degraded FallbackVerdict.
type Grader struct {
	caller
}

func NewGrader(gen TextGenerator, opts Options, logger *slog.Logger) *Grader {
	return &Grader{caller: newCaller(gen, opts, logger)}
}

func (g *Grader) Grade(ctx context.Context, req GradeRequest) Verdict {
	start := time.Now()

	raw, calls, err := g.call(ctx, operationGrade, buildGradingPrompt(req))

	var verdict Verdict
	if err != nil {
		verdict = FallbackVerdict(reasonFor(err))
		g.logger.Warn("Grading degraded",
			"reason", verdict.Reason,
			"calls", calls,
			"error", err)
	} else if verdict, err = parseVerdict(raw); err != nil {
		verdict = FallbackVerdict(ReasonMalformed)
		g.logger.Warn("Grading response could not be parsed",
			"reason", verdict.Reason,
			"response_length", len(raw))
	}

	verdict.Calls = calls
	verdict.Latency = time.Since(start)
	verdict.Model = g.opts.ModelName

	status, reason := "graded", ""
	if verdict.Degraded {
		status, reason = "degraded", string(verdict.Reason)
	}
	monitoring.ObserveAICall(operationGrade, status, reason, verdict.Latency)

	return verdict
}
