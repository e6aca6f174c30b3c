package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type ContentPostgreSQL struct {
	helpers *SharedHelpers
}

func NewContentPostgreSQL(db *gorm.DB) repositories.ContentRepository {
	return &ContentPostgreSQL{helpers: NewSharedHelpers(db)}
}

// ===== SUBJECTS / CHAPTERS / TOPICS =====

func (c *ContentPostgreSQL) CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	return c.helpers.conn(ctx, tx).Omit("Chapters").Create(subject).Error
}

func (c *ContentPostgreSQL) GetSubject(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	var subject models.Subject
	if err := c.helpers.conn(ctx, tx).First(&subject, id).Error; err != nil {
		return nil, err
	}
	return &subject, nil
}

func (c *ContentPostgreSQL) ListSubjects(ctx context.Context, tx *gorm.DB, gradeLevel *int) ([]*models.Subject, error) {
	var subjects []*models.Subject
	query := c.helpers.conn(ctx, tx).Order("grade_level ASC, name ASC")
	if gradeLevel != nil {
		query = query.Where("grade_level = ?", *gradeLevel)
	}
	if err := query.Find(&subjects).Error; err != nil {
		return nil, err
	}
	return subjects, nil
}

func (c *ContentPostgreSQL) CreateChapter(ctx context.Context, tx *gorm.DB, chapter *models.Chapter) error {
	return c.helpers.conn(ctx, tx).Omit("Subject", "Topics").Create(chapter).Error
}

func (c *ContentPostgreSQL) GetChapter(ctx context.Context, tx *gorm.DB, id uint) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := c.helpers.conn(ctx, tx).Preload("Subject").First(&chapter, id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (c *ContentPostgreSQL) ListChapters(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Chapter, error) {
	var chapters []*models.Chapter
	if err := c.helpers.conn(ctx, tx).
		Where("subject_id = ?", subjectID).
		Order("number ASC").
		Find(&chapters).Error; err != nil {
		return nil, err
	}
	return chapters, nil
}

func (c *ContentPostgreSQL) CreateTopic(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	return c.helpers.conn(ctx, tx).Omit("Chapter").Create(topic).Error
}

func (c *ContentPostgreSQL) GetTopic(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	var topic models.Topic
	if err := c.helpers.conn(ctx, tx).Preload("Chapter").First(&topic, id).Error; err != nil {
		return nil, err
	}
	return &topic, nil
}

func (c *ContentPostgreSQL) ListTopics(ctx context.Context, tx *gorm.DB, chapterID uint) ([]*models.Topic, error) {
	var topics []*models.Topic
	if err := c.helpers.conn(ctx, tx).
		Where("chapter_id = ?", chapterID).
		Order("id ASC").
		Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// ===== QUESTIONS =====

func (c *ContentPostgreSQL) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	create := func(tx *gorm.DB) error {
		options := question.Options
		answer := question.Answer
		if err := tx.Omit("Options", "Answer").Create(question).Error; err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}
		for i := range options {
			options[i].QuestionID = question.ID
			options[i].Position = i
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("failed to create options: %w", err)
			}
		}
		if answer != nil {
			answer.QuestionID = question.ID
			if err := tx.Create(answer).Error; err != nil {
				return fmt.Errorf("failed to create reference answer: %w", err)
			}
		}
		question.Options = options
		question.Answer = answer
		return nil
	}

	if tx != nil {
		return create(tx.WithContext(ctx))
	}
	return c.helpers.db.WithContext(ctx).Transaction(create)
}

func (c *ContentPostgreSQL) GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	var question models.Question
	if err := c.helpers.conn(ctx, tx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Answer").
		First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (c *ContentPostgreSQL) ListQuestions(ctx context.Context, tx *gorm.DB, topicID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := c.helpers.conn(ctx, tx).Model(&models.Question{}).Where("topic_id = ?", topicID)
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := repositories.NormalizePaging(filters.Limit, filters.Offset)
	if err := query.
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Answer").
		Order("id ASC").
		Limit(limit).Offset(offset).
		Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

// ===== MATERIALS =====

func (c *ContentPostgreSQL) CreateMaterial(ctx context.Context, tx *gorm.DB, material *models.StudyMaterial) error {
	return c.helpers.conn(ctx, tx).Create(material).Error
}

func (c *ContentPostgreSQL) ListMaterials(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.StudyMaterial, error) {
	var materials []*models.StudyMaterial
	if err := c.helpers.conn(ctx, tx).
		Where("topic_id = ?", topicID).
		Order("rating DESC, id ASC").
		Find(&materials).Error; err != nil {
		return nil, err
	}
	return materials, nil
}
