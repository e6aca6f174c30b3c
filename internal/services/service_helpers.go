package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/jinzhu/copier"
)

// requireRole loads the caller and checks it holds one of roles.
func requireRole(ctx context.Context, repo repositories.Repository, userID string, action string, roles ...models.UserRole) (*models.User, error) {
	user, err := repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !slices.Contains(roles, user.Role) {
		return nil, NewPermissionError(userID, 0, "user", action, fmt.Sprintf("requires role %v, has %s", roles, user.Role))
	}
	return user, nil
}

// publish sends an event; delivery failures are logged, never returned.
func publish(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, key string, data interface{}) {
	if publisher == nil {
		return
	}
	event := events.NewLearningEvent(eventType, key, data)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish learning event",
			"event_type", eventType,
			"event_id", event.ID,
			"error", err)
	}
}

func toAttemptSummary(attempt *models.QuizAttempt) AttemptSummary {
	var summary AttemptSummary
	_ = copier.Copy(&summary, attempt)
	if attempt.Quiz != nil {
		summary.QuizTitle = attempt.Quiz.Title
	}
	return summary
}

func toAttemptSummaries(attempts []*models.QuizAttempt) []AttemptSummary {
	summaries := make([]AttemptSummary, 0, len(attempts))
	for _, a := range attempts {
		summaries = append(summaries, toAttemptSummary(a))
	}
	return summaries
}

// hideAnswers strips reference answers and option correctness in place.
func hideAnswers(q *models.Question) {
	q.Answer = nil
	for i := range q.Options {
		q.Options[i].IsCorrect = false
	}
}
