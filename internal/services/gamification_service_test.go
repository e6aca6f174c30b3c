package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPointsFor(t *testing.T) {
	tests := []struct {
		name       string
		percentage float64
		passed     bool
		expected   int
	}{
		{"failed attempt", 35.4, false, 35},
		{"passed attempt gets bonus", 70, true, 90},
		{"rounds half up", 49.5, false, 50},
		{"perfect score", 100, true, 120},
		{"zero", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PointsFor(tt.percentage, tt.passed))
		})
	}
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		points   int
		expected models.Tier
	}{
		{0, models.TierBronze},
		{499, models.TierBronze},
		{500, models.TierSilver},
		{1499, models.TierSilver},
		{1500, models.TierGold},
		{3000, models.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, TierFor(tt.points), "points=%d", tt.points)
	}
}

func TestNextStreak(t *testing.T) {
	today := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)
	sameDay := time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 9, 23, 59, 0, 0, time.UTC)
	lastWeek := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, NextStreak(0, nil, today))
	assert.Equal(t, 1, NextStreak(0, &yesterday, today))
	assert.Equal(t, 4, NextStreak(4, &sameDay, today))
	assert.Equal(t, 5, NextStreak(4, &yesterday, today))
	assert.Equal(t, 1, NextStreak(4, &lastWeek, today))
}

func TestEarnedBadges(t *testing.T) {
	stats := &repositories.StudentAttemptStats{CompletedAttempts: 1}
	assert.Equal(t, []models.BadgeCode{models.BadgeFirstQuiz}, earnedBadges(stats, 60, 1))

	stats = &repositories.StudentAttemptStats{CompletedAttempts: 9, PassedAttempts: 5}
	assert.ElementsMatch(t, []models.BadgeCode{
		models.BadgeFirstQuiz,
		models.BadgePerfectScore,
		models.BadgeQuizStreak,
		models.BadgeHighAchiever,
	}, earnedBadges(stats, 100, 7))

	assert.Empty(t, earnedBadges(&repositories.StudentAttemptStats{}, 99.99, 6))
}

func TestGamificationService_RecordCompletion(t *testing.T) {
	completedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	frozen := func(pct float64, passed bool) *models.QuizAttempt {
		return &models.QuizAttempt{
			ID:            10,
			StudentID:     "stu-1",
			QuizID:        1,
			Status:        models.AttemptCompleted,
			Score:         &pct,
			Passed:        &passed,
			StartedAt:     completedAt.Add(-2 * time.Minute),
			CompletedAt:   &completedAt,
			AnsweredCount: 4,
		}
	}
	expectChapter := func(repo *MockRepository) {
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).
			Return(&models.Quiz{ID: 1, ChapterID: 7}, nil)
	}

	t.Run("updates profile and awards new badges", func(t *testing.T) {
		repo := newMockRepository()
		publisher := events.NewMockEventPublisher(testLogger())
		svc := NewGamificationService(repo, testLogger(), publisher)

		profile := &models.StudentProfile{
			UserID:        "stu-1",
			TotalPoints:   450,
			CurrentTier:   models.TierBronze,
			CurrentStreak: 2,
			LastActiveOn:  &yesterday,
		}
		repo.user.On("GetStudentProfileForUpdate", mock.Anything, mock.Anything, "stu-1").Return(profile, nil)
		repo.user.On("UpdateStudentProfile", mock.Anything, mock.Anything, mock.MatchedBy(func(p *models.StudentProfile) bool {
			return p.TotalPoints == 570 && p.CurrentTier == models.TierSilver && p.CurrentStreak == 3
		})).Return(nil)
		expectChapter(repo)
		repo.gamification.On("GetPerformanceForUpdate", mock.Anything, mock.Anything, "stu-1", uint(7)).
			Return(&models.PerformanceAnalytics{ID: 3, StudentID: "stu-1", ChapterID: 7, Attempts: 1, Accuracy: 80, BestScore: 80}, nil)
		repo.gamification.On("SavePerformance", mock.Anything, mock.Anything, mock.MatchedBy(func(p *models.PerformanceAnalytics) bool {
			return p.ID == 3 && p.Attempts == 2 && p.Accuracy == 90 && p.BestScore == 100
		})).Return(nil)
		repo.attempt.On("GetStudentStats", mock.Anything, mock.Anything, "stu-1").
			Return(&repositories.StudentAttemptStats{CompletedAttempts: 3, PassedAttempts: 2}, nil)
		repo.gamification.On("GetBadgeByCode", mock.Anything, mock.Anything, models.BadgeFirstQuiz).
			Return(&models.Badge{ID: 1, Code: models.BadgeFirstQuiz, Name: "First Steps"}, nil)
		repo.gamification.On("GetBadgeByCode", mock.Anything, mock.Anything, models.BadgePerfectScore).
			Return(&models.Badge{ID: 2, Code: models.BadgePerfectScore, Name: "Perfectionist"}, nil)
		repo.gamification.On("AwardBadge", mock.Anything, mock.Anything, "stu-1", uint(1), completedAt).Return(false, nil)
		repo.gamification.On("AwardBadge", mock.Anything, mock.Anything, "stu-1", uint(2), completedAt).Return(true, nil)

		rewards, err := svc.RecordCompletion(context.Background(), frozen(100, true))

		require.NoError(t, err)
		assert.Equal(t, 120, rewards.PointsEarned)
		assert.Equal(t, 570, rewards.TotalPoints)
		assert.Equal(t, models.TierSilver, rewards.Tier)
		assert.Equal(t, 3, rewards.Streak)
		assert.Equal(t, []models.BadgeCode{models.BadgePerfectScore}, rewards.NewBadges)
		assert.Len(t, publisher.EventsOfType(events.EventBadgeAwarded), 1)
		repo.AssertExpectations(t)
	})

	t.Run("missing badge in catalog is skipped", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewGamificationService(repo, testLogger(), nil)

		repo.user.On("GetStudentProfileForUpdate", mock.Anything, mock.Anything, "stu-1").
			Return(&models.StudentProfile{UserID: "stu-1"}, nil)
		repo.user.On("UpdateStudentProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		expectChapter(repo)
		repo.gamification.On("GetPerformanceForUpdate", mock.Anything, mock.Anything, "stu-1", uint(7)).Return(nil, nil)
		repo.gamification.On("SavePerformance", mock.Anything, mock.Anything, mock.MatchedBy(func(p *models.PerformanceAnalytics) bool {
			return p.ID == 0 && p.StudentID == "stu-1" && p.ChapterID == 7 && p.Attempts == 1 && p.Speed == 30
		})).Return(nil)
		repo.attempt.On("GetStudentStats", mock.Anything, mock.Anything, "stu-1").
			Return(&repositories.StudentAttemptStats{CompletedAttempts: 1}, nil)
		repo.gamification.On("GetBadgeByCode", mock.Anything, mock.Anything, models.BadgeFirstQuiz).
			Return(nil, gorm.ErrRecordNotFound)

		rewards, err := svc.RecordCompletion(context.Background(), frozen(40, false))

		require.NoError(t, err)
		assert.Equal(t, 40, rewards.PointsEarned)
		assert.Equal(t, 1, rewards.Streak)
		assert.Empty(t, rewards.NewBadges)
		repo.gamification.AssertNotCalled(t, "AwardBadge", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("performance failure rolls back the completion record", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewGamificationService(repo, testLogger(), nil)

		repo.user.On("GetStudentProfileForUpdate", mock.Anything, mock.Anything, "stu-1").
			Return(&models.StudentProfile{UserID: "stu-1"}, nil)
		repo.user.On("UpdateStudentProfile", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		expectChapter(repo)
		repo.gamification.On("GetPerformanceForUpdate", mock.Anything, mock.Anything, "stu-1", uint(7)).Return(nil, nil)
		repo.gamification.On("SavePerformance", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		_, err := svc.RecordCompletion(context.Background(), frozen(60, true))

		assert.ErrorContains(t, err, "failed to save performance")
		repo.attempt.AssertNotCalled(t, "GetStudentStats", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects an attempt that is not frozen", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewGamificationService(repo, testLogger(), nil)

		_, err := svc.RecordCompletion(context.Background(), &models.QuizAttempt{ID: 1, Status: models.AttemptInProgress})

		assert.Error(t, err)
		repo.user.AssertNotCalled(t, "GetStudentProfileForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing student profile", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewGamificationService(repo, testLogger(), nil)
		repo.user.On("GetStudentProfileForUpdate", mock.Anything, mock.Anything, "stu-1").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.RecordCompletion(context.Background(), frozen(80, true))

		assert.ErrorIs(t, err, ErrStudentProfileNotFound)
	})
}

func TestApplyAttempt(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	attempt := func(pct float64, passed bool, elapsed time.Duration, answered int) *models.QuizAttempt {
		completed := start.Add(elapsed)
		return &models.QuizAttempt{
			Score:         &pct,
			Passed:        &passed,
			StartedAt:     start,
			CompletedAt:   &completed,
			AnsweredCount: answered,
		}
	}

	p := &models.PerformanceAnalytics{}
	ApplyAttempt(p, attempt(80, true, 100*time.Second, 4), start)

	assert.Equal(t, 1, p.Attempts)
	assert.Equal(t, 80.0, p.Accuracy)
	assert.Equal(t, 100.0, p.Consistency)
	assert.Equal(t, 25.0, p.Speed)

	ApplyAttempt(p, attempt(60, false, 50*time.Second, 5), start)

	assert.Equal(t, 2, p.Attempts)
	assert.Equal(t, 1, p.PassedAttempts)
	assert.Equal(t, 70.0, p.Accuracy)
	assert.Equal(t, 80.0, p.BestScore)
	assert.Equal(t, 90.0, p.Consistency)
	assert.Equal(t, 17.5, p.Speed)

	ApplyAttempt(p, attempt(70, false, time.Minute, 0), start)

	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 2, p.TimedAttempts, "attempts without answers leave speed untouched")
	assert.Equal(t, 17.5, p.Speed)
}

func TestGamificationService_ListMyPerformance(t *testing.T) {
	repo := newMockRepository()
	svc := NewGamificationService(repo, testLogger(), nil)
	records := []*models.PerformanceAnalytics{{ID: 1, StudentID: "stu-1", ChapterID: 7, Accuracy: 72.5}}
	repo.gamification.On("ListPerformance", mock.Anything, mock.Anything, "stu-1").Return(records, nil)

	got, err := svc.ListMyPerformance(context.Background(), "stu-1")

	require.NoError(t, err)
	assert.Equal(t, records, got)
}
