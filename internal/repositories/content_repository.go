package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// ContentRepository interface for the subject → chapter → topic → question catalog
type ContentRepository interface {
	CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	GetSubject(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error)
	ListSubjects(ctx context.Context, tx *gorm.DB, gradeLevel *int) ([]*models.Subject, error)

	CreateChapter(ctx context.Context, tx *gorm.DB, chapter *models.Chapter) error
	GetChapter(ctx context.Context, tx *gorm.DB, id uint) (*models.Chapter, error)
	ListChapters(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Chapter, error)

	CreateTopic(ctx context.Context, tx *gorm.DB, topic *models.Topic) error
	GetTopic(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error)
	ListTopics(ctx context.Context, tx *gorm.DB, chapterID uint) ([]*models.Topic, error)

	// CreateQuestion stores the question together with its options and reference answer.
	CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) // includes options and answer
	ListQuestions(ctx context.Context, tx *gorm.DB, topicID uint, filters QuestionFilters) ([]*models.Question, int64, error)

	CreateMaterial(ctx context.Context, tx *gorm.DB, material *models.StudyMaterial) error
	ListMaterials(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.StudyMaterial, error)
}
