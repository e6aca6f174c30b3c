package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	helpers *SharedHelpers
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return q.helpers.conn(ctx, tx).Omit("Chapter", "Questions").Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.conn(ctx, tx).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.helpers.conn(ctx, tx).
		Preload("Chapter").
		Preload("Questions", func(db *gorm.DB) *gorm.DB { return db.Order("order_index ASC, id ASC") }).
		Preload("Questions.Question").
		Preload("Questions.Question.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Questions.Question.Answer").
		First(&quiz, id).Error; err != nil {
		return nil, err
	}
	quiz.QuestionCount = len(quiz.Questions)
	return &quiz, nil
}

func (q *QuizPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	var quizzes []*models.Quiz
	var total int64

	query := q.helpers.conn(ctx, tx).Model(&models.Quiz{})
	if filters.ChapterID != nil {
		query = query.Where("chapter_id = ?", *filters.ChapterID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset, "created_at", "created_at")
	if err := query.Find(&quizzes).Error; err != nil {
		return nil, 0, err
	}

	if len(quizzes) == 0 {
		return quizzes, total, nil
	}

	// Fill question counts in one round trip
	ids := make([]uint, len(quizzes))
	for i, quiz := range quizzes {
		ids[i] = quiz.ID
	}
	var counts []struct {
		QuizID uint
		Count  int
	}
	if err := q.helpers.conn(ctx, tx).Model(&models.QuizQuestion{}).
		Select("quiz_id, COUNT(*) AS count").
		Where("quiz_id IN ?", ids).
		Group("quiz_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, err
	}
	byQuiz := make(map[uint]int, len(counts))
	for _, c := range counts {
		byQuiz[c.QuizID] = c.Count
	}
	for _, quiz := range quizzes {
		quiz.QuestionCount = byQuiz[quiz.ID]
	}

	return quizzes, total, nil
}

func (q *QuizPostgreSQL) Touch(ctx context.Context, tx *gorm.DB, id uint) error {
	return q.helpers.conn(ctx, tx).Model(&models.Quiz{}).
		Where("id = ?", id).
		Update("version", gorm.Expr("version + 1")).Error
}

// ===== QUESTIONS =====

func (q *QuizPostgreSQL) CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	var count int64
	err := q.helpers.conn(ctx, tx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return int(count), err
}

func (q *QuizPostgreSQL) QuestionIDs(ctx context.Context, tx *gorm.DB, quizID uint) ([]uint, error) {
	var ids []uint
	if err := q.helpers.conn(ctx, tx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Order("order_index ASC").
		Pluck("question_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (q *QuizPostgreSQL) GetQuizQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) (*models.QuizQuestion, error) {
	var qq models.QuizQuestion
	if err := q.helpers.conn(ctx, tx).
		Preload("Question").
		Preload("Question.Options", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Question.Answer").
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		First(&qq).Error; err != nil {
		return nil, err
	}
	return &qq, nil
}

func (q *QuizPostgreSQL) AddQuestion(ctx context.Context, tx *gorm.DB, qq *models.QuizQuestion) error {
	return q.helpers.conn(ctx, tx).Omit("Question").Create(qq).Error
}

func (q *QuizPostgreSQL) RemoveQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) error {
	result := q.helpers.conn(ctx, tx).
		Where("quiz_id = ? AND question_id = ?", quizID, questionID).
		Delete(&models.QuizQuestion{})

	if result.Error != nil {
		return fmt.Errorf("failed to remove question from quiz: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) ReorderQuestions(ctx context.Context, tx *gorm.DB, quizID uint, orders []repositories.QuestionOrder) error {
	if len(orders) == 0 {
		return nil
	}

	reorder := func(tx *gorm.DB) error {
		for _, qo := range orders {
			result := tx.Model(&models.QuizQuestion{}).
				Where("quiz_id = ? AND question_id = ?", quizID, qo.QuestionID).
				Update("order_index", qo.Order)

			if result.Error != nil {
				return fmt.Errorf("failed to update order for question %d: %w", qo.QuestionID, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("question %d is not part of quiz %d: %w", qo.QuestionID, quizID, gorm.ErrRecordNotFound)
			}
		}
		return nil
	}

	if tx != nil {
		return reorder(tx.WithContext(ctx))
	}
	return q.helpers.db.WithContext(ctx).Transaction(reorder)
}

func (q *QuizPostgreSQL) MaxOrder(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	var maxOrder int
	err := q.helpers.conn(ctx, tx).Model(&models.QuizQuestion{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(order_index), 0)").
		Scan(&maxOrder).Error
	return maxOrder, err
}
