package ai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
)

const (
	DraftOptionCount  = 4
	DefaultDraftCount = 5
	MaxDraftCount     = 20
	defaultDifficulty = "medium"
	operationGenerate = "generate_questions"
)

type DraftQuestion struct {
	Text          string   `json:"question_text"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correct_option"`
	Explanation   string   `json:"explanation"`
}

// QuestionGenerator drafts multiple-choice questions from source text. Any
// failure yields an empty slice.
type QuestionGenerator struct {
	caller
}

func NewQuestionGenerator(gen TextGenerator, opts Options, logger *slog.Logger) *QuestionGenerator {
	return &QuestionGenerator{caller: newCaller(gen, opts, logger)}
}

func (g *QuestionGenerator) Generate(ctx context.Context, sourceText, difficulty string, count int) []DraftQuestion {
	if strings.TrimSpace(sourceText) == "" {
		return []DraftQuestion{}
	}
	if difficulty == "" {
		difficulty = defaultDifficulty
	}
	if count <= 0 {
		count = DefaultDraftCount
	}
	if count > MaxDraftCount {
		count = MaxDraftCount
	}

	start := time.Now()
	raw, calls, err := g.call(ctx, operationGenerate, buildGenerationPrompt(sourceText, difficulty, count))
	if err != nil {
		reason := reasonFor(err)
		g.logger.Warn("Question generation failed", "reason", reason, "calls", calls, "error", err)
		monitoring.ObserveAICall(operationGenerate, "degraded", string(reason), time.Since(start))
		return []DraftQuestion{}
	}

	drafts := parseDrafts(raw)
	if len(drafts) == 0 {
		g.logger.Warn("Question generation returned no usable drafts", "response_length", len(raw))
		monitoring.ObserveAICall(operationGenerate, "degraded", string(ReasonMalformed), time.Since(start))
		return []DraftQuestion{}
	}
	if len(drafts) > count {
		drafts = drafts[:count]
	}

	monitoring.ObserveAICall(operationGenerate, "graded", "", time.Since(start))
	return drafts
}
