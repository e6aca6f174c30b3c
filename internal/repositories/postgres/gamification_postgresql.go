package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GamificationPostgreSQL struct {
	helpers *SharedHelpers
}

func NewGamificationPostgreSQL(db *gorm.DB) repositories.GamificationRepository {
	return &GamificationPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (g *GamificationPostgreSQL) SeedBadges(ctx context.Context, tx *gorm.DB, badges []models.Badge) error {
	if len(badges) == 0 {
		return nil
	}
	seed := make([]models.Badge, len(badges))
	copy(seed, badges)
	return g.helpers.conn(ctx, tx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
		Create(&seed).Error
}

func (g *GamificationPostgreSQL) ListBadges(ctx context.Context, tx *gorm.DB) ([]*models.Badge, error) {
	var badges []*models.Badge
	if err := g.helpers.conn(ctx, tx).Order("id ASC").Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (g *GamificationPostgreSQL) GetBadgeByCode(ctx context.Context, tx *gorm.DB, code models.BadgeCode) (*models.Badge, error) {
	var badge models.Badge
	if err := g.helpers.conn(ctx, tx).Where("code = ?", code).First(&badge).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

func (g *GamificationPostgreSQL) AwardBadge(ctx context.Context, tx *gorm.DB, studentID string, badgeID uint, at time.Time) (bool, error) {
	award := models.StudentBadge{StudentID: studentID, BadgeID: badgeID, EarnedAt: at}
	result := g.helpers.conn(ctx, tx).
		Omit("Badge").
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "student_id"}, {Name: "badge_id"}}, DoNothing: true}).
		Create(&award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (g *GamificationPostgreSQL) ListStudentBadges(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.StudentBadge, error) {
	var badges []*models.StudentBadge
	if err := g.helpers.conn(ctx, tx).
		Preload("Badge").
		Where("student_id = ?", studentID).
		Order("earned_at ASC").
		Find(&badges).Error; err != nil {
		return nil, err
	}
	return badges, nil
}

func (g *GamificationPostgreSQL) GetPerformanceForUpdate(ctx context.Context, tx *gorm.DB, studentID string, chapterID uint) (*models.PerformanceAnalytics, error) {
	var performance models.PerformanceAnalytics
	if err := g.helpers.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND chapter_id = ?", studentID, chapterID).
		First(&performance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &performance, nil
}

func (g *GamificationPostgreSQL) SavePerformance(ctx context.Context, tx *gorm.DB, performance *models.PerformanceAnalytics) error {
	return g.helpers.conn(ctx, tx).Omit("Chapter").Save(performance).Error
}

func (g *GamificationPostgreSQL) ListPerformance(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PerformanceAnalytics, error) {
	var records []*models.PerformanceAnalytics
	if err := g.helpers.conn(ctx, tx).
		Preload("Chapter").
		Where("student_id = ?", studentID).
		Order("chapter_id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
