package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
)

const (
	defaultLockTTL  = time.Minute
	defaultLockWait = 5 * time.Second
)

// AttemptDependencies are the collaborators of the attempt state machine.
type AttemptDependencies struct {
	Grader       AnswerGrader
	Gamification GamificationService
	Quizzes      QuizService
	Publisher    events.EventPublisher
	Locker       cache.Locker
	LockTTL      time.Duration
	LockWait     time.Duration
}

type attemptService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	ops       *ServiceLogger
	validator *validator.Validator

	grader       AnswerGrader
	gamification GamificationService
	quizzes      QuizService
	publisher    events.EventPublisher
	locker       cache.Locker
	lockTTL      time.Duration
	lockWait     time.Duration

	now func() time.Time
}

func NewAttemptService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps AttemptDependencies) AttemptService {
	s := &attemptService{
		repo:         repo,
		logger:       logger,
		ops:          NewServiceLogger(logger, "attempt"),
		validator:    validator,
		grader:       deps.Grader,
		gamification: deps.Gamification,
		quizzes:      deps.Quizzes,
		publisher:    deps.Publisher,
		locker:       deps.Locker,
		lockTTL:      deps.LockTTL,
		lockWait:     deps.LockWait,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if s.locker == nil {
		s.locker = cache.NewLocalLocker()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.lockWait <= 0 {
		s.lockWait = defaultLockWait
	}
	return s
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, quizID uint, studentID string) (result *StartResult, err error) {
	op := s.ops.WithOperation(ctx, "start_attempt", studentID)
	defer func() { op.LogResult(quizID, "quiz", err) }()

	if _, err = s.repo.User().GetStudentProfile(ctx, nil, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentProfileNotFound
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	// Check if student already has an active attempt
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active attempt: %w", err)
	}
	if active != nil {
		if !active.IsOverdue(s.now()) {
			s.logger.Info("Resuming existing attempt", "attempt_id", active.ID, "student_id", studentID)
			return s.startResult(ctx, active, quiz, studentID, true), nil
		}
		if err = s.expireOverdue(ctx, active.ID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	attempt := &models.QuizAttempt{
		StudentID: studentID,
		QuizID:    quiz.ID,
		Status:    models.AttemptInProgress,
		StartedAt: now,
		Deadline:  quiz.Deadline(now),
		Version:   1,
	}

	if err = s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		// A concurrent Start won the single-active-attempt index
		if repositories.IsDuplicateKeyError(err) {
			winner, getErr := s.repo.Attempt().GetActiveAttempt(ctx, nil, studentID, quizID)
			if getErr == nil && winner != nil {
				return s.startResult(ctx, winner, quiz, studentID, true), nil
			}
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	monitoring.AttemptTransitions.WithLabelValues(string(models.AttemptInProgress)).Inc()
	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"student_id", studentID)

	publish(ctx, s.publisher, s.logger, events.EventAttemptStarted, studentID, events.AttemptStartedEvent{
		AttemptID: attempt.ID,
		QuizID:    quizID,
		StudentID: studentID,
		StartedAt: attempt.StartedAt,
		Deadline:  attempt.Deadline,
	})

	return s.startResult(ctx, attempt, quiz, studentID, false), nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, studentID string, req *SubmitAnswerRequest) (result *AnswerResult, err error) {
	op := s.ops.WithOperation(ctx, "submit_answer", studentID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	if err = s.validator.Validate(req); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "submit_answer")
	if err != nil {
		return nil, err
	}
	if attempt.Status.Terminal() {
		return nil, ErrAttemptNotActive
	}

	if attempt.IsOverdue(s.now()) {
		if _, ferr := s.finalize(ctx, attempt); ferr != nil {
			return nil, ferr
		}
		return nil, ErrAttemptTimeExpired
	}

	qq, err := s.repo.Quiz().GetQuizQuestion(ctx, nil, attempt.QuizID, req.QuestionID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get quiz question: %w", err)
		}
		if _, qerr := s.repo.Content().GetQuestion(ctx, nil, req.QuestionID); repositories.IsNotFoundError(qerr) {
			return nil, ErrQuestionNotFound
		}
		return nil, ErrQuestionNotInQuiz
	}

	verdict := s.grader.Grade(ctx, gradeRequest(qq.Question, req.Answer))

	answer := buildAnswer(attempt.ID, req, verdict, s.now())
	if err = s.saveAnswer(ctx, attempt, answer); err != nil {
		return nil, err
	}

	s.logger.Info("Answer graded",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"answer_id", answer.ID,
		"grading_status", answer.GradingStatus,
		"degraded_reason", answer.DegradedReason)

	publish(ctx, s.publisher, s.logger, events.EventAnswerGraded, studentID, events.AnswerGradedEvent{
		AttemptID:      attemptID,
		AnswerID:       answer.ID,
		QuestionID:     req.QuestionID,
		StudentID:      studentID,
		Score:          verdict.Score,
		IsCorrect:      verdict.IsCorrect,
		Degraded:       verdict.Degraded,
		DegradedReason: string(verdict.Reason),
	})

	return &AnswerResult{
		AnswerID:       answer.ID,
		QuestionID:     req.QuestionID,
		Score:          verdict.Score,
		Feedback:       verdict.Feedback,
		IsCorrect:      verdict.IsCorrect,
		Status:         answer.GradingStatus,
		DegradedReason: answer.DegradedReason,
	}, nil
}

func (s *attemptService) Complete(ctx context.Context, attemptID uint, studentID string) (result *CompletionResult, err error) {
	op := s.ops.WithOperation(ctx, "complete_attempt", studentID)
	defer func() { op.LogResult(attemptID, "attempt", err) }()

	release, err := s.lock(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID, "complete")
	if err != nil {
		return nil, err
	}

	if attempt.Status.Terminal() {
		return s.frozenResult(ctx, attempt)
	}

	return s.finalize(ctx, attempt)
}

// ===== READ OPERATIONS =====

func (s *attemptService) Get(ctx context.Context, attemptID uint, callerID string) (*AttemptDetail, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	if err := s.checkViewAccess(ctx, attempt, callerID); err != nil {
		return nil, err
	}

	return &AttemptDetail{
		AttemptSummary: toAttemptSummary(attempt),
		Answers:        attempt.Answers,
	}, nil
}

func (s *attemptService) ListMine(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	filters.StudentID = &studentID
	return s.list(ctx, filters)
}

func (s *attemptService) ListForQuiz(ctx context.Context, quizID uint, teacherID string, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != teacherID {
		return nil, NewPermissionError(teacherID, quizID, "quiz", "list_attempts", "not quiz creator")
	}

	filters.QuizID = &quizID
	return s.list(ctx, filters)
}

func (s *attemptService) list(ctx context.Context, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	filters.Limit, filters.Offset = repositories.NormalizePaging(filters.Limit, filters.Offset)

	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return &AttemptListResponse{
		Attempts: toAttemptSummaries(attempts),
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}, nil
}

// Compile-time check
var _ AnswerGrader = (*ai.Grader)(nil)
