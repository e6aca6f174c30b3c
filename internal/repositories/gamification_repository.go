package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// GamificationRepository interface for badges and chapter performance
type GamificationRepository interface {
	SeedBadges(ctx context.Context, tx *gorm.DB, badges []models.Badge) error
	ListBadges(ctx context.Context, tx *gorm.DB) ([]*models.Badge, error)
	GetBadgeByCode(ctx context.Context, tx *gorm.DB, code models.BadgeCode) (*models.Badge, error)

	// AwardBadge reports whether a new award was recorded; awarding twice is a no-op.
	AwardBadge(ctx context.Context, tx *gorm.DB, studentID string, badgeID uint, at time.Time) (bool, error)
	ListStudentBadges(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.StudentBadge, error)

	// GetPerformanceForUpdate returns nil, nil when the student has no record for the chapter.
	GetPerformanceForUpdate(ctx context.Context, tx *gorm.DB, studentID string, chapterID uint) (*models.PerformanceAnalytics, error)
	SavePerformance(ctx context.Context, tx *gorm.DB, performance *models.PerformanceAnalytics) error
	ListPerformance(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PerformanceAnalytics, error)
}
