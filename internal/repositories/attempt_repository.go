package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) // includes quiz and answers
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)

	// GetActiveAttempt returns nil, nil when the student has no in-progress attempt.
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error)
	HasAttempts(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error)

	// UpdateWithVersion writes the attempt only if its version is unchanged
	// and increments it. Returns ErrVersionConflict otherwise.
	UpdateWithVersion(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	// TouchActive increments the version of an attempt that is still in
	// progress at the given version. Returns ErrVersionConflict otherwise.
	TouchActive(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error

	GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string) (*StudentAttemptStats, error)
}

// AnswerRepository interface for student answer operations
type AnswerRepository interface {
	Create(ctx context.Context, tx *gorm.DB, answer *models.StudentQuizAnswer) error
	// ListByAttempt returns every submission for the attempt in submission order.
	ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.StudentQuizAnswer, error)
}
