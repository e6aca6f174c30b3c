package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"gorm.io/datatypes"
)

type contentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewContentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ContentService {
	return &contentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== SUBJECTS / CHAPTERS / TOPICS =====

func (s *contentService) CreateSubject(ctx context.Context, teacherID string, req *CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_subject", models.RoleTeacher); err != nil {
		return nil, err
	}

	subject := &models.Subject{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		GradeLevel:  req.GradeLevel,
	}
	if err := s.repo.Content().CreateSubject(ctx, nil, subject); err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}
	return subject, nil
}

func (s *contentService) GetSubject(ctx context.Context, id uint) (*models.Subject, error) {
	subject, err := s.repo.Content().GetSubject(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("failed to get subject: %w", err)
	}
	return subject, nil
}

func (s *contentService) ListSubjects(ctx context.Context, gradeLevel *int) ([]*models.Subject, error) {
	return s.repo.Content().ListSubjects(ctx, nil, gradeLevel)
}

func (s *contentService) CreateChapter(ctx context.Context, teacherID string, req *CreateChapterRequest) (*models.Chapter, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_chapter", models.RoleTeacher); err != nil {
		return nil, err
	}
	if _, err := s.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}

	chapter := &models.Chapter{
		SubjectID:   req.SubjectID,
		Number:      req.Number,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if err := s.repo.Content().CreateChapter(ctx, nil, chapter); err != nil {
		return nil, fmt.Errorf("failed to create chapter: %w", err)
	}
	return chapter, nil
}

func (s *contentService) ListChapters(ctx context.Context, subjectID uint) ([]*models.Chapter, error) {
	if _, err := s.GetSubject(ctx, subjectID); err != nil {
		return nil, err
	}
	return s.repo.Content().ListChapters(ctx, nil, subjectID)
}

func (s *contentService) CreateTopic(ctx context.Context, teacherID string, req *CreateTopicRequest) (*models.Topic, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_topic", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.chapterExists(ctx, req.ChapterID); err != nil {
		return nil, err
	}

	topic := &models.Topic{
		ChapterID:   req.ChapterID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
	}
	if err := s.repo.Content().CreateTopic(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("failed to create topic: %w", err)
	}
	return topic, nil
}

func (s *contentService) ListTopics(ctx context.Context, chapterID uint) ([]*models.Topic, error) {
	if err := s.chapterExists(ctx, chapterID); err != nil {
		return nil, err
	}
	return s.repo.Content().ListTopics(ctx, nil, chapterID)
}

// ===== QUESTIONS =====

func (s *contentService) CreateQuestion(ctx context.Context, teacherID string, req *CreateQuestionRequest) (*models.Question, error) {
	s.logger.Info("Creating question", "topic_id", req.TopicID, "type", req.Type, "creator_id", teacherID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_question", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.topicExists(ctx, req.TopicID); err != nil {
		return nil, err
	}

	question := questionFromRequest(req, teacherID)
	if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
		return nil, errs
	}

	if err := s.repo.Content().CreateQuestion(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", question.ID)
	return question, nil
}

func questionFromRequest(req *CreateQuestionRequest, creatorID string) *models.Question {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	marks := req.Marks
	if marks == 0 {
		marks = 1
	}

	question := &models.Question{
		TopicID:    req.TopicID,
		Text:       strings.TrimSpace(req.Text),
		Type:       req.Type,
		Difficulty: difficulty,
		Marks:      marks,
		CreatedBy:  creatorID,
	}
	for i, opt := range req.Options {
		question.Options = append(question.Options, models.MCQOption{
			Position:  i,
			Text:      strings.TrimSpace(opt.Text),
			IsCorrect: opt.IsCorrect,
		})
	}

	if req.CorrectAnswer != "" || req.Explanation != "" || len(req.KeyPoints) > 0 || len(req.CommonMistakes) > 0 {
		question.Answer = &models.QuestionAnswer{
			CorrectAnswer:  strings.TrimSpace(req.CorrectAnswer),
			Explanation:    req.Explanation,
			KeyPoints:      datatypes.JSONSlice[string](req.KeyPoints),
			CommonMistakes: datatypes.JSONSlice[string](req.CommonMistakes),
		}
	}
	return question
}

// GetQuestion hides the answer key from everyone but teachers.
func (s *contentService) GetQuestion(ctx context.Context, id uint, callerID string) (*models.Question, error) {
	question, err := s.repo.Content().GetQuestion(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if !s.isTeacher(ctx, callerID) {
		hideAnswers(question)
	}
	return question, nil
}

func (s *contentService) ListQuestions(ctx context.Context, topicID uint, callerID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	if err := s.topicExists(ctx, topicID); err != nil {
		return nil, 0, err
	}

	questions, total, err := s.repo.Content().ListQuestions(ctx, nil, topicID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}

	if !s.isTeacher(ctx, callerID) {
		for _, q := range questions {
			hideAnswers(q)
		}
	}
	return questions, total, nil
}

// ===== MATERIALS =====

func (s *contentService) CreateMaterial(ctx context.Context, teacherID string, req *CreateMaterialRequest) (*models.StudyMaterial, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := requireRole(ctx, s.repo, teacherID, "create_material", models.RoleTeacher); err != nil {
		return nil, err
	}
	if err := s.topicExists(ctx, req.TopicID); err != nil {
		return nil, err
	}

	material := &models.StudyMaterial{
		TopicID:   req.TopicID,
		Title:     strings.TrimSpace(req.Title),
		Type:      req.Type,
		Content:   req.Content,
		URL:       req.URL,
		Rating:    5,
		CreatedBy: teacherID,
	}
	if err := s.repo.Content().CreateMaterial(ctx, nil, material); err != nil {
		return nil, fmt.Errorf("failed to create material: %w", err)
	}
	return material, nil
}

func (s *contentService) ListMaterials(ctx context.Context, topicID uint) ([]*models.StudyMaterial, error) {
	if err := s.topicExists(ctx, topicID); err != nil {
		return nil, err
	}
	return s.repo.Content().ListMaterials(ctx, nil, topicID)
}

// ===== HELPERS =====

func (s *contentService) chapterExists(ctx context.Context, id uint) error {
	if _, err := s.repo.Content().GetChapter(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrChapterNotFound
		}
		return fmt.Errorf("failed to get chapter: %w", err)
	}
	return nil
}

func (s *contentService) topicExists(ctx context.Context, id uint) error {
	if _, err := s.repo.Content().GetTopic(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTopicNotFound
		}
		return fmt.Errorf("failed to get topic: %w", err)
	}
	return nil
}

func (s *contentService) isTeacher(ctx context.Context, userID string) bool {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	return err == nil && user.Role == models.RoleTeacher
}
