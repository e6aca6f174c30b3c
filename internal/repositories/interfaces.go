package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates all repositories. A nil tx means "use the base
// connection"; inside WithTransaction pass the supplied tx through.
type Repository interface {
	User() UserRepository
	Content() ContentRepository
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Answer() AnswerRepository
	Gamification() GamificationRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Type       *models.QuestionType    `json:"type"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

type QuizFilters struct {
	ChapterID *uint   `json:"chapter_id"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
}

type AttemptFilters struct {
	Status    *models.AttemptStatus `json:"status"`
	StudentID *string               `json:"student_id"`
	QuizID    *uint                 `json:"quiz_id"`
	DateFrom  *time.Time            `json:"date_from"`
	DateTo    *time.Time            `json:"date_to"`
	Limit     int                   `json:"limit"`
	Offset    int                   `json:"offset"`
	SortBy    string                `json:"sort_by"`    // "started_at", "completed_at", "score"
	SortOrder string                `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED HELPER STRUCTS =====

type QuestionOrder struct {
	QuestionID uint `json:"question_id"`
	Order      int  `json:"order"`
}

type StudentAttemptStats struct {
	CompletedAttempts int     `json:"completed_attempts"`
	PassedAttempts    int     `json:"passed_attempts"`
	AverageScore      float64 `json:"average_score"`
	BestScore         float64 `json:"best_score"`
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// NormalizePaging clamps limit/offset to sane bounds.
func NormalizePaging(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
