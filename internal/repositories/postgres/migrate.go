package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// Migrate creates the schema and seeds the badge catalog.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.TeacherProfile{},
		&models.ParentProfile{},
		&models.Subject{},
		&models.Chapter{},
		&models.Topic{},
		&models.Question{},
		&models.MCQOption{},
		&models.QuestionAnswer{},
		&models.StudyMaterial{},
		&models.Quiz{},
		&models.QuizQuestion{},
		&models.QuizAttempt{},
		&models.StudentQuizAnswer{},
		&models.PerformanceAnalytics{},
		&models.Badge{},
		&models.StudentBadge{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// At most one in-progress attempt per student and quiz
	if err := db.WithContext(ctx).Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_attempt
		 ON quiz_attempts (student_id, quiz_id) WHERE status = 'in_progress'`,
	).Error; err != nil {
		return fmt.Errorf("create active attempt index: %w", err)
	}

	if err := NewGamificationPostgreSQL(db).SeedBadges(ctx, nil, models.DefaultBadges); err != nil {
		return fmt.Errorf("seed badges: %w", err)
	}
	return nil
}
