package validator

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/models"
)

const (
	minMCQOptions = 2
	maxMCQOptions = 10
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks the parts of a question that struct tags cannot:
// option sets for MCQ and a reference answer for free-text questions.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(q.Text) == "" {
		errs = append(errs, ValidationError{Field: "question_text", Message: "is required", Rule: "required"})
	}
	if q.Marks < 1 {
		errs = append(errs, ValidationError{Field: "marks", Message: "must be at least 1", Rule: "min", Value: q.Marks})
	}

	switch q.Type {
	case models.QuestionMCQ:
		errs = append(errs, v.validateOptions(q.Options)...)
	case models.QuestionShort, models.QuestionEssay:
		if len(q.Options) > 0 {
			errs = append(errs, ValidationError{Field: "options", Message: "only mcq questions have options", Rule: "question_options"})
		}
		if q.Answer == nil || strings.TrimSpace(q.Answer.CorrectAnswer) == "" {
			errs = append(errs, ValidationError{Field: "answer.correct_answer", Message: "is required for free-text questions", Rule: "reference_answer"})
		}
	default:
		errs = append(errs, ValidationError{Field: "question_type", Message: "must be a valid question type (mcq, short, essay)", Rule: "question_type", Value: q.Type})
	}

	return errs
}

func (v *QuestionValidator) validateOptions(options []models.MCQOption) ValidationErrors {
	var errs ValidationErrors

	if len(options) < minMCQOptions || len(options) > maxMCQOptions {
		errs = append(errs, ValidationError{
			Field:   "options",
			Message: fmt.Sprintf("must have between %d and %d options", minMCQOptions, maxMCQOptions),
			Rule:    "question_options",
			Value:   len(options),
		})
		return errs
	}

	seen := make(map[string]bool, len(options))
	correct := 0
	for i, opt := range options {
		text := strings.TrimSpace(opt.Text)
		if text == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("options[%d].option_text", i), Message: "is required", Rule: "required"})
			continue
		}
		key := strings.ToLower(text)
		if seen[key] {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("options[%d].option_text", i), Message: "duplicates another option", Rule: "unique", Value: text})
		}
		seen[key] = true
		if opt.IsCorrect {
			correct++
		}
	}

	if correct != 1 {
		errs = append(errs, ValidationError{Field: "options", Message: "must have exactly one correct option", Rule: "question_options", Value: correct})
	}

	return errs
}
