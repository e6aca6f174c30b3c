package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/scoring"
	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func attemptLockKey(attemptID uint) string {
	return fmt.Sprintf("lock:attempt:%d", attemptID)
}

func (s *attemptService) lock(ctx context.Context, attemptID uint) (func(), error) {
	release, err := s.locker.Acquire(ctx, attemptLockKey(attemptID), s.lockTTL, s.lockWait)
	if err != nil {
		if errors.Is(err, cache.ErrLockBusy) {
			return nil, ErrAttemptBusy
		}
		return nil, fmt.Errorf("failed to lock attempt: %w", err)
	}
	return release, nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID, action string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	// Verify ownership
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", action, "not owned by student")
	}
	return attempt, nil
}

// checkViewAccess allows the owner, the quiz creator and the owner's parents.
func (s *attemptService) checkViewAccess(ctx context.Context, attempt *models.QuizAttempt, callerID string) error {
	if attempt.StudentID == callerID {
		return nil
	}

	quiz := attempt.Quiz
	if quiz == nil {
		var err error
		if quiz, err = s.repo.Quiz().GetByID(ctx, nil, attempt.QuizID); err != nil && !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to get quiz: %w", err)
		}
	}
	if quiz != nil && quiz.CreatedBy == callerID {
		return nil
	}

	isParent, err := s.repo.User().IsParentOf(ctx, nil, callerID, attempt.StudentID)
	if err != nil {
		return fmt.Errorf("failed to check parent link: %w", err)
	}
	if isParent {
		return nil
	}

	return NewPermissionError(callerID, attempt.ID, "attempt", "view", "not owner, quiz creator or parent")
}

func (s *attemptService) startResult(ctx context.Context, attempt *models.QuizAttempt, quiz *models.Quiz, studentID string, resumed bool) *StartResult {
	result := &StartResult{
		AttemptID: attempt.ID,
		QuizID:    attempt.QuizID,
		TimeLimit: quiz.TimeLimit,
		StartedAt: attempt.StartedAt,
		Deadline:  attempt.Deadline,
		Resumed:   resumed,
	}
	if s.quizzes != nil {
		view, err := s.quizzes.Get(ctx, quiz.ID, studentID)
		if err != nil {
			s.logger.Warn("Failed to load quiz for attempt", "quiz_id", quiz.ID, "error", err)
		} else {
			result.Quiz = view
		}
	}
	return result
}

// expireOverdue freezes an abandoned attempt found by Start.
func (s *attemptService) expireOverdue(ctx context.Context, attemptID uint) error {
	release, err := s.lock(ctx, attemptID)
	if err != nil {
		return err
	}
	defer release()

	// Re-read under the lock; another request may have frozen it already
	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		return fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.Status.Terminal() {
		return nil
	}

	_, err = s.finalize(ctx, attempt)
	return err
}

// finalize scores and freezes an in-progress attempt. Must be called with the
// attempt lock held. Status is expired when the deadline has passed.
func (s *attemptService) finalize(ctx context.Context, attempt *models.QuizAttempt) (*CompletionResult, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	questionIDs, err := s.repo.Quiz().QuestionIDs(ctx, nil, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz questions: %w", err)
	}
	answers, err := s.repo.Answer().ListByAttempt(ctx, nil, attempt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	scored := make([]scoring.ScoredAnswer, 0, len(answers))
	for _, a := range answers {
		scored = append(scored, scoring.ScoredAnswer{
			Seq:        a.ID,
			QuestionID: a.QuestionID,
			Score:      a.AIScore,
			Degraded:   a.GradingStatus == models.GradingDegraded,
		})
	}
	res := scoring.Aggregate(scored, len(questionIDs), quiz.PassingPercentage, questionIDs...)

	now := s.now()
	status := models.AttemptCompleted
	if attempt.IsOverdue(now) {
		status = models.AttemptExpired
	}

	attempt.Status = status
	attempt.CompletedAt = &now
	attempt.Score = &res.Percentage
	attempt.Passed = &res.Passed
	attempt.AnsweredCount = res.Answered
	attempt.DegradedAnswers = res.Degraded

	if err := s.repo.Attempt().UpdateWithVersion(ctx, nil, attempt); err != nil {
		if errors.Is(err, repositories.ErrVersionConflict) {
			return nil, ErrConcurrentModification
		}
		return nil, fmt.Errorf("failed to freeze attempt: %w", err)
	}

	monitoring.AttemptTransitions.WithLabelValues(string(status)).Inc()
	s.logger.Info("Quiz attempt frozen",
		"attempt_id", attempt.ID,
		"status", status,
		"score", res.Percentage,
		"passed", res.Passed,
		"degraded_answers", res.Degraded)

	result := &CompletionResult{
		AttemptID:       attempt.ID,
		Score:           res.Percentage,
		TotalQuestions:  len(questionIDs),
		Answered:        res.Answered,
		Passed:          res.Passed,
		Status:          status,
		DegradedAnswers: res.Degraded,
		CompletedAt:     attempt.CompletedAt,
	}

	// Side effects after the freeze never fail the completion
	if s.gamification != nil {
		rewards, gerr := s.gamification.RecordCompletion(ctx, attempt)
		if gerr != nil {
			s.logger.Error("Failed to record gamification", "attempt_id", attempt.ID, "error", gerr)
		} else {
			result.Rewards = rewards
		}
	}

	publish(ctx, s.publisher, s.logger, events.EventAttemptCompleted, attempt.StudentID, events.AttemptCompletedEvent{
		AttemptID:       attempt.ID,
		QuizID:          attempt.QuizID,
		StudentID:       attempt.StudentID,
		Status:          string(status),
		Percentage:      res.Percentage,
		Passed:          res.Passed,
		DegradedAnswers: res.Degraded,
		CompletedAt:     now,
	})

	return result, nil
}

// saveAnswer inserts the answer only while the attempt is still in progress at
// the version read under the lock.
func (s *attemptService) saveAnswer(ctx context.Context, attempt *models.QuizAttempt, answer *models.StudentQuizAnswer) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Attempt().TouchActive(ctx, tx, attempt); err != nil {
			return err
		}
		return s.repo.Answer().Create(ctx, tx, answer)
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrVersionConflict) {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	current, getErr := s.repo.Attempt().GetByID(ctx, nil, attempt.ID)
	if getErr == nil && current.Status.Terminal() {
		s.logger.Warn("Answer discarded, attempt finished while grading",
			"attempt_id", attempt.ID,
			"status", current.Status)
		return ErrAttemptNotActive
	}
	return ErrConcurrentModification
}

// frozenResult rebuilds the completion result of a terminal attempt without writing.
func (s *attemptService) frozenResult(ctx context.Context, attempt *models.QuizAttempt) (*CompletionResult, error) {
	total, err := s.repo.Quiz().CountQuestions(ctx, nil, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("failed to count quiz questions: %w", err)
	}

	result := &CompletionResult{
		AttemptID:       attempt.ID,
		TotalQuestions:  total,
		Answered:        attempt.AnsweredCount,
		Status:          attempt.Status,
		DegradedAnswers: attempt.DegradedAnswers,
		CompletedAt:     attempt.CompletedAt,
	}
	if attempt.Score != nil {
		result.Score = *attempt.Score
	}
	if attempt.Passed != nil {
		result.Passed = *attempt.Passed
	}
	return result, nil
}

func gradeRequest(q *models.Question, studentAnswer string) ai.GradeRequest {
	req := ai.GradeRequest{StudentAnswer: studentAnswer}
	if q == nil {
		return req
	}
	req.Question = q.Text
	req.Reference = q.ReferenceText()
	if q.Answer != nil {
		req.KeyPoints = q.Answer.KeyPoints
		req.CommonMistakes = q.Answer.CommonMistakes
	}
	return req
}

type gradingDetails struct {
	Model     string `json:"model,omitempty"`
	Calls     int    `json:"calls"`
	LatencyMS int64  `json:"latency_ms"`
	Degraded  bool   `json:"degraded"`
	Reason    string `json:"reason,omitempty"`
}

func buildAnswer(attemptID uint, req *SubmitAnswerRequest, verdict ai.Verdict, submittedAt time.Time) *models.StudentQuizAnswer {
	score := verdict.Score
	isCorrect := verdict.IsCorrect
	status := models.GradingGraded
	if verdict.Degraded {
		status = models.GradingDegraded
	}

	details, _ := json.Marshal(gradingDetails{
		Model:     verdict.Model,
		Calls:     verdict.Calls,
		LatencyMS: verdict.Latency.Milliseconds(),
		Degraded:  verdict.Degraded,
		Reason:    string(verdict.Reason),
	})

	return &models.StudentQuizAnswer{
		AttemptID:      attemptID,
		QuestionID:     req.QuestionID,
		Answer:         strings.TrimSpace(req.Answer),
		AIScore:        &score,
		AIFeedback:     verdict.Feedback,
		IsCorrect:      &isCorrect,
		GradingStatus:  status,
		DegradedReason: string(verdict.Reason),
		GradingDetails: datatypes.JSON(details),
		SubmittedAt:    submittedAt,
	}
}
