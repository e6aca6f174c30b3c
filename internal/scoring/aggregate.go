// Package scoring reduces per-answer grading results into a final attempt score.
package scoring

import (
	"maps"
	"math"
	"slices"
)

// MaxAnswerScore is the highest score a single answer can receive.
const MaxAnswerScore = 100.0

// ScoredAnswer is the minimal view of a persisted answer the aggregator needs.
// Seq orders submissions for the same question; the highest Seq wins.
type ScoredAnswer struct {
	Seq        uint
	QuestionID uint
	Score      *float64
	Degraded   bool
}

// Result is the frozen outcome of an attempt.
type Result struct {
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	Answered   int     `json:"answered"`
	Degraded   int     `json:"degraded"`
}

// Aggregate computes the attempt percentage against the quiz's question count.
// Unanswered questions count as zero, nil scores count as zero and a quiz with
// no questions scores 0. When questionIDs is non-empty, answers to questions
// outside that set are ignored.
func Aggregate(answers []ScoredAnswer, questionCount int, passingPercentage int, questionIDs ...uint) Result {
	var allowed map[uint]struct{}
	if len(questionIDs) > 0 {
		allowed = make(map[uint]struct{}, len(questionIDs))
		for _, id := range questionIDs {
			allowed[id] = struct{}{}
		}
	}

	latest := make(map[uint]ScoredAnswer, len(answers))
	for _, a := range answers {
		if allowed != nil {
			if _, ok := allowed[a.QuestionID]; !ok {
				continue
			}
		}
		if prev, ok := latest[a.QuestionID]; !ok || a.Seq > prev.Seq {
			latest[a.QuestionID] = a
		}
	}

	var total float64
	res := Result{Answered: len(latest)}
	// Sum in question id order; float addition is order sensitive.
	for _, id := range slices.Sorted(maps.Keys(latest)) {
		a := latest[id]
		if a.Degraded {
			res.Degraded++
		}
		if a.Score == nil {
			continue
		}
		total += clamp(*a.Score)
	}

	var percentage float64
	if questionCount > 0 {
		percentage = total * 100 / (float64(questionCount) * MaxAnswerScore)
	}
	// Pass is decided on the exact value; only the stored percentage is rounded.
	res.Passed = percentage >= float64(passingPercentage)
	res.Percentage = round2(percentage)
	return res
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > MaxAnswerScore:
		return MaxAnswerScore
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
