package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/events"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
)

// AnswerGrader is satisfied by *ai.Grader.
type AnswerGrader interface {
	Grade(ctx context.Context, req ai.GradeRequest) ai.Verdict
}

// QuestionDrafter is satisfied by *ai.QuestionGenerator.
type QuestionDrafter interface {
	Generate(ctx context.Context, sourceText, difficulty string, count int) []ai.DraftQuestion
}

type AttemptService interface {
	Start(ctx context.Context, quizID uint, studentID string) (*StartResult, error)
	SubmitAnswer(ctx context.Context, attemptID uint, studentID string, req *SubmitAnswerRequest) (*AnswerResult, error)
	Complete(ctx context.Context, attemptID uint, studentID string) (*CompletionResult, error)

	Get(ctx context.Context, attemptID uint, callerID string) (*AttemptDetail, error)
	ListMine(ctx context.Context, studentID string, filters repositories.AttemptFilters) (*AttemptListResponse, error)
	ListForQuiz(ctx context.Context, quizID uint, teacherID string, filters repositories.AttemptFilters) (*AttemptListResponse, error)
}

type QuizService interface {
	Create(ctx context.Context, teacherID string, req *CreateQuizRequest) (*QuizView, error)
	Get(ctx context.Context, quizID uint, callerID string) (*QuizView, error)
	ListByChapter(ctx context.Context, chapterID uint, limit, offset int) ([]*models.Quiz, int64, error)

	AddQuestion(ctx context.Context, quizID uint, teacherID string, req *AddQuizQuestionRequest) (*QuizView, error)
	RemoveQuestion(ctx context.Context, quizID, questionID uint, teacherID string) error
	ReorderQuestions(ctx context.Context, quizID uint, teacherID string, req *ReorderQuestionsRequest) (*QuizView, error)
}

type ContentService interface {
	CreateSubject(ctx context.Context, teacherID string, req *CreateSubjectRequest) (*models.Subject, error)
	GetSubject(ctx context.Context, id uint) (*models.Subject, error)
	ListSubjects(ctx context.Context, gradeLevel *int) ([]*models.Subject, error)

	CreateChapter(ctx context.Context, teacherID string, req *CreateChapterRequest) (*models.Chapter, error)
	ListChapters(ctx context.Context, subjectID uint) ([]*models.Chapter, error)

	CreateTopic(ctx context.Context, teacherID string, req *CreateTopicRequest) (*models.Topic, error)
	ListTopics(ctx context.Context, chapterID uint) ([]*models.Topic, error)

	CreateQuestion(ctx context.Context, teacherID string, req *CreateQuestionRequest) (*models.Question, error)
	GetQuestion(ctx context.Context, id uint, callerID string) (*models.Question, error)
	ListQuestions(ctx context.Context, topicID uint, callerID string, filters repositories.QuestionFilters) ([]*models.Question, int64, error)

	CreateMaterial(ctx context.Context, teacherID string, req *CreateMaterialRequest) (*models.StudyMaterial, error)
	ListMaterials(ctx context.Context, topicID uint) ([]*models.StudyMaterial, error)
}

type UserService interface {
	EnsureUser(ctx context.Context, identity Identity) (*models.User, error)
	GetMe(ctx context.Context, userID string) (*models.User, error)
	SelectRole(ctx context.Context, userID string, req *SelectRoleRequest) (*models.User, error)

	StudentDashboard(ctx context.Context, userID string) (*StudentDashboard, error)
	TeacherDashboard(ctx context.Context, userID string) (*TeacherDashboard, error)
	ParentDashboard(ctx context.Context, userID string) (*ParentDashboard, error)
	LinkChild(ctx context.Context, parentID string, req *LinkChildRequest) error
}

type GamificationService interface {
	// RecordCompletion applies points, streak, tier, badges and chapter
	// performance for a frozen attempt.
	RecordCompletion(ctx context.Context, attempt *models.QuizAttempt) (*CompletionRewards, error)
	ListMyBadges(ctx context.Context, studentID string) ([]*models.StudentBadge, error)
	ListMyPerformance(ctx context.Context, studentID string) ([]*models.PerformanceAnalytics, error)
}

type GenerationService interface {
	GenerateQuestions(ctx context.Context, teacherID string, req *GenerateQuestionsRequest) (*GenerateQuestionsResponse, error)
	SaveDrafts(ctx context.Context, topicID uint, teacherID string, req *SaveDraftsRequest) ([]*models.Question, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID uint, teacherID string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

// Dependencies groups everything the services are built from.
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.Validator
	Cache     cache.CacheService
	Locker    cache.Locker
	Publisher events.EventPublisher
	Grader    AnswerGrader
	Drafter   QuestionDrafter

	// LockTTL must exceed the longest grading call including retries.
	LockTTL  time.Duration
	LockWait time.Duration
}

type ServiceManager struct {
	Attempt      AttemptService
	Quiz         QuizService
	Content      ContentService
	User         UserService
	Gamification GamificationService
	Generation   GenerationService
	Export       ExportService
}

func NewServiceManager(deps Dependencies) *ServiceManager {
	gamification := NewGamificationService(deps.Repo, deps.Logger, deps.Publisher)
	quiz := NewQuizService(deps.Repo, deps.Logger, deps.Validator, deps.Cache)

	return &ServiceManager{
		Attempt: NewAttemptService(deps.Repo, deps.Logger, deps.Validator, AttemptDependencies{
			Grader:       deps.Grader,
			Gamification: gamification,
			Quizzes:      quiz,
			Publisher:    deps.Publisher,
			Locker:       deps.Locker,
			LockTTL:      deps.LockTTL,
			LockWait:     deps.LockWait,
		}),
		Quiz:         quiz,
		Content:      NewContentService(deps.Repo, deps.Logger, deps.Validator),
		User:         NewUserService(deps.Repo, deps.Logger, deps.Validator),
		Gamification: gamification,
		Generation:   NewGenerationService(deps.Repo, deps.Logger, deps.Validator, deps.Drafter, deps.Publisher),
		Export:       NewExportService(deps.Repo, deps.Logger),
	}
}
