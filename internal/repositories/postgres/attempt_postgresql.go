package postgres

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return a.helpers.conn(ctx, tx).Omit("Quiz", "Answers").Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.helpers.conn(ctx, tx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.helpers.conn(ctx, tx).
		Preload("Quiz").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	var attempts []*models.QuizAttempt
	var total int64

	// apply filter first
	query := a.helpers.conn(ctx, tx).Model(&models.QuizAttempt{})
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = a.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset,
		"started_at", "started_at", "completed_at", "score")

	if err := query.Preload("Quiz").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}

	return attempts, total, nil
}

func (a *AttemptPostgreSQL) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.helpers.conn(ctx, tx).
		Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, models.AttemptInProgress).
		First(&attempt).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error) {
	var count int64
	err := a.helpers.conn(ctx, tx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", quizID).
		Count(&count).Error
	return count > 0, err
}

func (a *AttemptPostgreSQL) UpdateWithVersion(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	result := a.helpers.conn(ctx, tx).Model(&models.QuizAttempt{}).
		Where("id = ? AND version = ?", attempt.ID, attempt.Version).
		Updates(map[string]interface{}{
			"status":           attempt.Status,
			"completed_at":     attempt.CompletedAt,
			"score":            attempt.Score,
			"passed":           attempt.Passed,
			"answered_count":   attempt.AnsweredCount,
			"degraded_answers": attempt.DegradedAnswers,
			"version":          attempt.Version + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrVersionConflict
	}
	attempt.Version++
	return nil
}

func (a *AttemptPostgreSQL) TouchActive(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	result := a.helpers.conn(ctx, tx).Model(&models.QuizAttempt{}).
		Where("id = ? AND version = ? AND status = ?", attempt.ID, attempt.Version, models.AttemptInProgress).
		Update("version", gorm.Expr("version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repositories.ErrVersionConflict
	}
	attempt.Version++
	return nil
}

func (a *AttemptPostgreSQL) GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentAttemptStats, error) {
	var row struct {
		Completed int
		Passed    int
		AvgScore  *float64
		BestScore *float64
	}

	// Aggregate stats in single query
	if err := a.helpers.conn(ctx, tx).
		Model(&models.QuizAttempt{}).
		Select(`COUNT(*) AS completed,
			COALESCE(SUM(CASE WHEN passed = true THEN 1 ELSE 0 END), 0) AS passed,
			AVG(score) AS avg_score,
			MAX(score) AS best_score`).
		Where("student_id = ? AND status IN ?", studentID,
			[]models.AttemptStatus{models.AttemptCompleted, models.AttemptExpired}).
		Scan(&row).Error; err != nil {
		return nil, err
	}

	stats := &repositories.StudentAttemptStats{
		CompletedAttempts: row.Completed,
		PassedAttempts:    row.Passed,
	}
	if row.AvgScore != nil {
		stats.AverageScore = *row.AvgScore
	}
	if row.BestScore != nil {
		stats.BestScore = *row.BestScore
	}
	return stats, nil
}

// ===== ANSWERS =====

type AnswerPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAnswerPostgreSQL(db *gorm.DB) repositories.AnswerRepository {
	return &AnswerPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (a *AnswerPostgreSQL) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentQuizAnswer) error {
	return a.helpers.conn(ctx, tx).Omit("Question").Create(answer).Error
}

func (a *AnswerPostgreSQL) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.StudentQuizAnswer, error) {
	var answers []*models.StudentQuizAnswer
	if err := a.helpers.conn(ctx, tx).
		Where("attempt_id = ?", attemptID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
