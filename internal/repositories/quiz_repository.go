package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// QuizRepository interface for quizzes and their ordered questions
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	// GetByIDWithQuestions preloads questions in order, with options and answers.
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	List(ctx context.Context, tx *gorm.DB, filters QuizFilters) ([]*models.Quiz, int64, error)
	Touch(ctx context.Context, tx *gorm.DB, id uint) error // bumps version

	CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)
	QuestionIDs(ctx context.Context, tx *gorm.DB, quizID uint) ([]uint, error)
	GetQuizQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) (*models.QuizQuestion, error) // includes question details
	AddQuestion(ctx context.Context, tx *gorm.DB, qq *models.QuizQuestion) error
	RemoveQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) error
	ReorderQuestions(ctx context.Context, tx *gorm.DB, quizID uint, orders []QuestionOrder) error
	MaxOrder(ctx context.Context, tx *gorm.DB, quizID uint) (int, error)
}
