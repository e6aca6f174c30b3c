package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"gorm.io/gorm"
)

type generationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	drafter   QuestionDrafter
	publisher events.EventPublisher
}

func NewGenerationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, drafter QuestionDrafter, publisher events.EventPublisher) GenerationService {
	return &generationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		drafter:   drafter,
		publisher: publisher,
	}
}

// GenerateQuestions asks the model for MCQ drafts. Drafts are not stored; an
// unavailable model yields an empty list rather than an error.
func (s *generationService) GenerateQuestions(ctx context.Context, teacherID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "generate_questions", models.RoleTeacher); err != nil {
		return nil, err
	}

	count := req.Count
	if count == 0 {
		count = ai.DefaultDraftCount
	}

	drafts := []ai.DraftQuestion{}
	if s.drafter != nil {
		drafts = s.drafter.Generate(ctx, req.SourceText, string(req.Difficulty), count)
	}

	s.logger.Info("Questions drafted", "teacher_id", teacherID, "requested", count, "returned", len(drafts))
	publish(ctx, s.publisher, s.logger, events.EventQuestionsDrafted, teacherID, events.QuestionsDraftedEvent{
		TeacherID:  teacherID,
		Difficulty: string(req.Difficulty),
		Count:      len(drafts),
	})

	return &GenerateQuestionsResponse{Drafts: drafts, Count: len(drafts)}, nil
}

// SaveDrafts stores reviewed drafts in a topic as MCQ questions.
func (s *generationService) SaveDrafts(ctx context.Context, topicID uint, teacherID string, req *SaveDraftsRequest) ([]*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "save_drafts", models.RoleTeacher); err != nil {
		return nil, err
	}
	if _, err := s.repo.Content().GetTopic(ctx, nil, topicID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTopicNotFound
		}
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	questions := make([]*models.Question, 0, len(req.Drafts))
	for i, draft := range req.Drafts {
		q := draftToQuestion(draft, topicID, difficulty, teacherID)
		if errs := s.validator.Question().ValidateQuestion(q); len(errs) > 0 {
			for j := range errs {
				errs[j].Field = fmt.Sprintf("drafts[%d].%s", i, errs[j].Field)
			}
			return nil, errs
		}
		questions = append(questions, q)
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, q := range questions {
			if err := s.repo.Content().CreateQuestion(ctx, tx, q); err != nil {
				return fmt.Errorf("failed to save draft: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Drafts saved", "topic_id", topicID, "teacher_id", teacherID, "count", len(questions))
	return questions, nil
}

func draftToQuestion(draft DraftInput, topicID uint, difficulty models.DifficultyLevel, creatorID string) *models.Question {
	correct := strings.TrimSpace(draft.CorrectOption)
	q := &models.Question{
		TopicID:    topicID,
		Text:       strings.TrimSpace(draft.Text),
		Type:       models.QuestionMCQ,
		Difficulty: difficulty,
		Marks:      1,
		CreatedBy:  creatorID,
		Answer: &models.QuestionAnswer{
			CorrectAnswer: correct,
			Explanation:   draft.Explanation,
		},
	}
	for i, text := range draft.Options {
		text = strings.TrimSpace(text)
		q.Options = append(q.Options, models.MCQOption{
			Position:  i,
			Text:      text,
			IsCorrect: strings.EqualFold(text, correct),
		})
	}
	return q
}
