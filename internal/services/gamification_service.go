package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

const (
	PassBonusPoints       = 20
	StreakBadgeThreshold  = 7
	HighAchieverThreshold = 5

	silverThreshold   = 500
	goldThreshold     = 1500
	platinumThreshold = 3000
)

// PointsFor returns the points earned by one frozen attempt.
func PointsFor(percentage float64, passed bool) int {
	points := int(math.Round(percentage))
	if passed {
		points += PassBonusPoints
	}
	return points
}

func TierFor(totalPoints int) models.Tier {
	switch {
	case totalPoints >= platinumThreshold:
		return models.TierPlatinum
	case totalPoints >= goldThreshold:
		return models.TierGold
	case totalPoints >= silverThreshold:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

// NextStreak advances a daily activity streak. Activity on the same day keeps
// the streak, activity the following day extends it and any gap resets it to 1.
func NextStreak(current int, lastActive *time.Time, today time.Time) int {
	if lastActive == nil || current <= 0 {
		return 1
	}
	last := truncateDay(*lastActive)
	day := truncateDay(today)
	switch days := int(day.Sub(last).Hours() / 24); {
	case days <= 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type gamificationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewGamificationService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) GamificationService {
	return &gamificationService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

func (s *gamificationService) RecordCompletion(ctx context.Context, attempt *models.QuizAttempt) (*CompletionRewards, error) {
	if !attempt.Status.Terminal() {
		return nil, fmt.Errorf("attempt %d is not frozen", attempt.ID)
	}

	var percentage float64
	if attempt.Score != nil {
		percentage = *attempt.Score
	}
	passed := attempt.Passed != nil && *attempt.Passed
	day := time.Now().UTC()
	if attempt.CompletedAt != nil {
		day = attempt.CompletedAt.UTC()
	}

	rewards := &CompletionRewards{NewBadges: []models.BadgeCode{}}
	var awarded []*models.Badge

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		profile, err := s.repo.User().GetStudentProfileForUpdate(ctx, tx, attempt.StudentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrStudentProfileNotFound
			}
			return fmt.Errorf("failed to lock student profile: %w", err)
		}

		rewards.PointsEarned = PointsFor(percentage, passed)
		profile.TotalPoints += rewards.PointsEarned
		profile.CurrentTier = TierFor(profile.TotalPoints)
		profile.CurrentStreak = NextStreak(profile.CurrentStreak, profile.LastActiveOn, day)
		activeOn := truncateDay(day)
		profile.LastActiveOn = &activeOn

		if err := s.repo.User().UpdateStudentProfile(ctx, tx, profile); err != nil {
			return fmt.Errorf("failed to update student profile: %w", err)
		}

		rewards.TotalPoints = profile.TotalPoints
		rewards.Tier = profile.CurrentTier
		rewards.Streak = profile.CurrentStreak

		if err := s.recordPerformance(ctx, tx, attempt, day); err != nil {
			return err
		}

		stats, err := s.repo.Attempt().GetStudentStats(ctx, tx, attempt.StudentID)
		if err != nil {
			return fmt.Errorf("failed to get student stats: %w", err)
		}

		for _, code := range earnedBadges(stats, percentage, profile.CurrentStreak) {
			badge, err := s.repo.Gamification().GetBadgeByCode(ctx, tx, code)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					s.logger.Warn("Badge missing from catalog", "badge_code", code)
					continue
				}
				return fmt.Errorf("failed to get badge %s: %w", code, err)
			}
			created, err := s.repo.Gamification().AwardBadge(ctx, tx, attempt.StudentID, badge.ID, day)
			if err != nil {
				return fmt.Errorf("failed to award badge %s: %w", code, err)
			}
			if created {
				awarded = append(awarded, badge)
				rewards.NewBadges = append(rewards.NewBadges, code)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Gamification recorded",
		"student_id", attempt.StudentID,
		"attempt_id", attempt.ID,
		"points_earned", rewards.PointsEarned,
		"total_points", rewards.TotalPoints,
		"tier", rewards.Tier,
		"streak", rewards.Streak,
		"new_badges", len(awarded))

	for _, badge := range awarded {
		publish(ctx, s.publisher, s.logger, events.EventBadgeAwarded, attempt.StudentID, events.BadgeAwardedEvent{
			StudentID: attempt.StudentID,
			BadgeCode: string(badge.Code),
			BadgeName: badge.Name,
		})
	}

	return rewards, nil
}

func (s *gamificationService) recordPerformance(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt, at time.Time) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, tx, attempt.QuizID)
	if err != nil {
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	performance, err := s.repo.Gamification().GetPerformanceForUpdate(ctx, tx, attempt.StudentID, quiz.ChapterID)
	if err != nil {
		return fmt.Errorf("failed to lock performance: %w", err)
	}
	if performance == nil {
		performance = &models.PerformanceAnalytics{StudentID: attempt.StudentID, ChapterID: quiz.ChapterID}
	}
	ApplyAttempt(performance, attempt, at)
	if err := s.repo.Gamification().SavePerformance(ctx, tx, performance); err != nil {
		return fmt.Errorf("failed to save performance: %w", err)
	}
	return nil
}

// ApplyAttempt folds one frozen attempt into a chapter record using running
// mean and variance, so past attempts are never re-read.
func ApplyAttempt(p *models.PerformanceAnalytics, attempt *models.QuizAttempt, at time.Time) {
	var percentage float64
	if attempt.Score != nil {
		percentage = *attempt.Score
	}

	p.Attempts++
	if attempt.Passed != nil && *attempt.Passed {
		p.PassedAttempts++
	}
	if p.Attempts == 1 || percentage > p.BestScore {
		p.BestScore = percentage
	}

	delta := percentage - p.Accuracy
	p.Accuracy += delta / float64(p.Attempts)
	p.ScoreM2 += delta * (percentage - p.Accuracy)
	p.Consistency = math.Max(0, 100-math.Sqrt(p.ScoreM2/float64(p.Attempts)))

	if attempt.CompletedAt != nil && attempt.AnsweredCount > 0 {
		perQuestion := attempt.CompletedAt.Sub(attempt.StartedAt).Seconds() / float64(attempt.AnsweredCount)
		if perQuestion >= 0 {
			p.TimedAttempts++
			p.Speed += (perQuestion - p.Speed) / float64(p.TimedAttempts)
		}
	}
	p.LastUpdated = at
}

// earnedBadges lists every badge the student currently qualifies for.
// Awarding is idempotent so already held badges may be included.
func earnedBadges(stats *repositories.StudentAttemptStats, percentage float64, streak int) []models.BadgeCode {
	var codes []models.BadgeCode
	if stats.CompletedAttempts >= 1 {
		codes = append(codes, models.BadgeFirstQuiz)
	}
	if percentage >= 100 {
		codes = append(codes, models.BadgePerfectScore)
	}
	if streak >= StreakBadgeThreshold {
		codes = append(codes, models.BadgeQuizStreak)
	}
	if stats.PassedAttempts >= HighAchieverThreshold {
		codes = append(codes, models.BadgeHighAchiever)
	}
	return codes
}

func (s *gamificationService) ListMyBadges(ctx context.Context, studentID string) ([]*models.StudentBadge, error) {
	badges, err := s.repo.Gamification().ListStudentBadges(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	return badges, nil
}

func (s *gamificationService) ListMyPerformance(ctx context.Context, studentID string) ([]*models.PerformanceAnalytics, error) {
	records, err := s.repo.Gamification().ListPerformance(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list performance: %w", err)
	}
	return records, nil
}
