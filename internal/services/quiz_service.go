package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

const QuizCacheTTL = 10 * time.Minute

func quizCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:%d", quizID)
}

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     cache.CacheService
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, cacheService cache.CacheService) QuizService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheService,
	}
}

func (s *quizService) Create(ctx context.Context, teacherID string, req *CreateQuizRequest) (*QuizView, error) {
	s.logger.Info("Creating quiz", "title", req.Title, "creator_id", teacherID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_quiz", models.RoleTeacher); err != nil {
		return nil, err
	}

	if _, err := s.repo.Content().GetChapter(ctx, nil, req.ChapterID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("failed to get chapter: %w", err)
	}

	seen := make(map[uint]struct{}, len(req.QuestionIDs))
	for _, id := range req.QuestionIDs {
		if _, dup := seen[id]; dup {
			return nil, ValidationErrors{*NewValidationError("question_ids", "must not contain duplicates", id)}
		}
		seen[id] = struct{}{}
	}

	passing := models.DefaultPassingPercentage
	if req.PassingPercentage != nil {
		passing = *req.PassingPercentage
	}

	quiz := &models.Quiz{
		Title:             req.Title,
		Description:       req.Description,
		ChapterID:         req.ChapterID,
		TimeLimit:         req.TimeLimit,
		PassingPercentage: passing,
		CreatedBy:         teacherID,
		Version:           1,
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Quiz().Create(ctx, tx, quiz); err != nil {
			return fmt.Errorf("failed to create quiz: %w", err)
		}
		for i, questionID := range req.QuestionIDs {
			if _, err := s.repo.Content().GetQuestion(ctx, tx, questionID); err != nil {
				if repositories.IsNotFoundError(err) {
					return fmt.Errorf("question %d: %w", questionID, ErrQuestionNotFound)
				}
				return fmt.Errorf("failed to get question %d: %w", questionID, err)
			}
			if err := s.repo.Quiz().AddQuestion(ctx, tx, &models.QuizQuestion{
				QuizID:     quiz.ID,
				QuestionID: questionID,
				Order:      i + 1,
			}); err != nil {
				return fmt.Errorf("failed to add question %d: %w", questionID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "questions", len(req.QuestionIDs))
	return s.Get(ctx, quiz.ID, teacherID)
}

// Get returns the quiz with its ordered questions. Only the creator sees
// reference answers and option correctness.
func (s *quizService) Get(ctx context.Context, quizID uint, callerID string) (*QuizView, error) {
	var view QuizView
	err := s.cache.Get(ctx, quizCacheKey(quizID), &view)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("Quiz cache read failed", "quiz_id", quizID, "error", err)
		}
		loaded, err := s.load(ctx, quizID)
		if err != nil {
			return nil, err
		}
		view = *loaded
		if err := s.cache.Set(ctx, quizCacheKey(quizID), &view, QuizCacheTTL); err != nil {
			s.logger.Warn("Quiz cache write failed", "quiz_id", quizID, "error", err)
		}
	}

	// Lock state changes with the first attempt, so it is never served from cache
	locked, err := s.repo.Attempt().HasAttempts(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to check attempts: %w", err)
	}
	view.Locked = locked

	if view.CreatedBy != callerID {
		redact(&view)
	}
	return &view, nil
}

func (s *quizService) ListByChapter(ctx context.Context, chapterID uint, limit, offset int) ([]*models.Quiz, int64, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, nil, repositories.QuizFilters{
		ChapterID: &chapterID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// ===== STRUCTURAL CHANGES =====

func (s *quizService) AddQuestion(ctx context.Context, quizID uint, teacherID string, req *AddQuizQuestionRequest) (*QuizView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, quizID, teacherID, "add_question", func(tx *gorm.DB) error {
		if _, err := s.repo.Content().GetQuestion(ctx, tx, req.QuestionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotFound
			}
			return fmt.Errorf("failed to get question: %w", err)
		}
		if _, err := s.repo.Quiz().GetQuizQuestion(ctx, tx, quizID, req.QuestionID); err == nil {
			return ErrQuizQuestionExists
		} else if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("failed to check quiz question: %w", err)
		}

		maxOrder, err := s.repo.Quiz().MaxOrder(ctx, tx, quizID)
		if err != nil {
			return fmt.Errorf("failed to get next order: %w", err)
		}
		if err := s.repo.Quiz().AddQuestion(ctx, tx, &models.QuizQuestion{
			QuizID:     quizID,
			QuestionID: req.QuestionID,
			Order:      maxOrder + 1,
		}); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrQuizQuestionExists
			}
			return fmt.Errorf("failed to add question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, quizID, teacherID)
}

func (s *quizService) RemoveQuestion(ctx context.Context, quizID, questionID uint, teacherID string) error {
	return s.mutate(ctx, quizID, teacherID, "remove_question", func(tx *gorm.DB) error {
		if err := s.repo.Quiz().RemoveQuestion(ctx, tx, quizID, questionID); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotInQuiz
			}
			return err
		}
		return nil
	})
}

func (s *quizService) ReorderQuestions(ctx context.Context, quizID uint, teacherID string, req *ReorderQuestionsRequest) (*QuizView, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, quizID, teacherID, "reorder_questions", func(tx *gorm.DB) error {
		if err := s.repo.Quiz().ReorderQuestions(ctx, tx, quizID, req.Orders); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuestionNotInQuiz
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, quizID, teacherID)
}

// mutate runs a structural change after checking ownership and that no
// attempt exists yet, then bumps the quiz version and drops the cache entry.
func (s *quizService) mutate(ctx context.Context, quizID uint, teacherID, action string, fn func(tx *gorm.DB) error) error {
	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		quiz, err := s.repo.Quiz().GetByID(ctx, tx, quizID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrQuizNotFound
			}
			return fmt.Errorf("failed to get quiz: %w", err)
		}
		if quiz.CreatedBy != teacherID {
			return NewPermissionError(teacherID, quizID, "quiz", action, "not quiz creator")
		}

		locked, err := s.repo.Attempt().HasAttempts(ctx, tx, quizID)
		if err != nil {
			return fmt.Errorf("failed to check attempts: %w", err)
		}
		if locked {
			return ErrQuizLocked
		}

		if err := fn(tx); err != nil {
			return err
		}
		return s.repo.Quiz().Touch(ctx, tx, quizID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, quizID)
	s.logger.Info("Quiz updated", "quiz_id", quizID, "action", action, "teacher_id", teacherID)
	return nil
}

func (s *quizService) invalidate(ctx context.Context, quizID uint) {
	if err := s.cache.Delete(ctx, quizCacheKey(quizID)); err != nil {
		s.logger.Warn("Quiz cache invalidation failed", "quiz_id", quizID, "error", err)
	}
}

func (s *quizService) load(ctx context.Context, quizID uint) (*QuizView, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return toQuizView(quiz), nil
}

func toQuizView(quiz *models.Quiz) *QuizView {
	view := &QuizView{}
	_ = copier.Copy(view, quiz)
	view.QuestionCount = len(quiz.Questions)
	view.Questions = make([]QuizQuestionView, 0, len(quiz.Questions))

	for _, qq := range quiz.Questions {
		item := QuizQuestionView{QuestionID: qq.QuestionID, Order: qq.Order}
		if q := qq.Question; q != nil {
			item.Text = q.Text
			item.Type = q.Type
			item.Difficulty = q.Difficulty
			item.Marks = q.Marks
			item.Reference = q.Answer
			for _, opt := range q.Options {
				var ov OptionView
				_ = copier.Copy(&ov, &opt)
				correct := opt.IsCorrect
				ov.Correct = &correct
				item.Options = append(item.Options, ov)
			}
		}
		view.Questions = append(view.Questions, item)
	}
	return view
}

// redact removes answer keys from a view.
func redact(view *QuizView) {
	for i := range view.Questions {
		view.Questions[i].Reference = nil
		for j := range view.Questions[i].Options {
			view.Questions[i].Options[j].Correct = nil
		}
	}
}
