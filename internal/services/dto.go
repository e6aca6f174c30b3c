package services

import (
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
)

// ===== USERS =====

// Identity is what the auth layer knows about the caller.
type Identity struct {
	UserID   string
	FullName string
	Email    string
}

type SelectRoleRequest struct {
	Role            models.UserRole      `json:"role" validate:"required,user_role"`
	Grade           int                  `json:"grade" validate:"omitempty,gte=1,lte=12"`
	LearningStyle   models.LearningStyle `json:"learning_style" validate:"omitempty,oneof=visual auditory kinesthetic reading"`
	Qualification   string               `json:"qualification" validate:"omitempty,max=200"`
	ExperienceYears int                  `json:"experience_years" validate:"omitempty,gte=0,lte=80"`
	Bio             string               `json:"bio" validate:"omitempty,max=2000"`
}

type LinkChildRequest struct {
	StudentID string `json:"student_id" validate:"required,max=255"`
}

type StudentDashboard struct {
	Profile        *models.StudentProfile            `json:"profile"`
	Badges         []*models.StudentBadge            `json:"badges"`
	Stats          *repositories.StudentAttemptStats `json:"stats"`
	RecentAttempts []AttemptSummary                  `json:"recent_attempts"`
}

type TeacherDashboard struct {
	Profile      *models.TeacherProfile `json:"profile"`
	Quizzes      []*models.Quiz         `json:"quizzes"`
	TotalQuizzes int64                  `json:"total_quizzes"`
}

type ChildSummary struct {
	StudentID     string                            `json:"student_id"`
	FullName      string                            `json:"full_name"`
	Grade         int                               `json:"grade"`
	TotalPoints   int                               `json:"total_points"`
	CurrentTier   models.Tier                       `json:"current_tier"`
	CurrentStreak int                               `json:"current_streak"`
	Stats         *repositories.StudentAttemptStats `json:"stats"`
}

type ParentDashboard struct {
	Children []ChildSummary `json:"children"`
}

// ===== CONTENT =====

type CreateSubjectRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	GradeLevel  int    `json:"grade_level" validate:"required,gte=1,lte=12"`
}

type CreateChapterRequest struct {
	SubjectID   uint   `json:"subject_id" validate:"required"`
	Number      int    `json:"number" validate:"required,gte=1"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type CreateTopicRequest struct {
	ChapterID   uint   `json:"chapter_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
}

type OptionInput struct {
	Text      string `json:"option_text" validate:"required,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	TopicID        uint                   `json:"topic_id" validate:"required"`
	Text           string                 `json:"question_text" validate:"required,max=5000"`
	Type           models.QuestionType    `json:"question_type" validate:"required,question_type"`
	Difficulty     models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Marks          int                    `json:"marks" validate:"omitempty,gte=1,lte=100"`
	Options        []OptionInput          `json:"options" validate:"omitempty,max=10,dive"`
	CorrectAnswer  string                 `json:"correct_answer" validate:"omitempty,max=10000"`
	Explanation    string                 `json:"explanation" validate:"omitempty,max=5000"`
	KeyPoints      []string               `json:"key_points" validate:"omitempty,max=20,dive,max=500"`
	CommonMistakes []string               `json:"common_mistakes" validate:"omitempty,max=20,dive,max=500"`
}

type CreateMaterialRequest struct {
	TopicID uint                `json:"topic_id" validate:"required"`
	Title   string              `json:"title" validate:"required,max=200"`
	Type    models.MaterialType `json:"material_type" validate:"required,material_type"`
	Content string              `json:"content" validate:"omitempty,max=50000"`
	URL     string              `json:"url" validate:"omitempty,url,max=500"`
}

// ===== QUIZZES =====

type CreateQuizRequest struct {
	Title             string `json:"title" validate:"required,max=200"`
	Description       string `json:"description" validate:"omitempty,max=2000"`
	ChapterID         uint   `json:"chapter_id" validate:"required"`
	TimeLimit         int    `json:"time_limit" validate:"gte=0,lte=600"`
	PassingPercentage *int   `json:"passing_percentage" validate:"omitempty,gte=0,lte=100"`
	QuestionIDs       []uint `json:"question_ids" validate:"omitempty,max=200,dive,required"`
}

type AddQuizQuestionRequest struct {
	QuestionID uint `json:"question_id" validate:"required"`
}

type ReorderQuestionsRequest struct {
	Orders []repositories.QuestionOrder `json:"orders" validate:"required,min=1,dive"`
}

type OptionView struct {
	ID       uint   `json:"id"`
	Position int    `json:"position"`
	Text     string `json:"option_text"`
	Correct  *bool  `json:"is_correct,omitempty" copier:"-"`
}

type QuizQuestionView struct {
	QuestionID uint                   `json:"question_id"`
	Order      int                    `json:"order"`
	Text       string                 `json:"question_text"`
	Type       models.QuestionType    `json:"question_type"`
	Difficulty models.DifficultyLevel `json:"difficulty"`
	Marks      int                    `json:"marks"`
	Options    []OptionView           `json:"options,omitempty"`
	Reference  *models.QuestionAnswer `json:"reference_answer,omitempty"`
}

// QuizView is the read model of a quiz. Reference answers and option
// correctness are only filled for the quiz creator.
type QuizView struct {
	ID                uint               `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	ChapterID         uint               `json:"chapter_id"`
	TimeLimit         int                `json:"time_limit"`
	PassingPercentage int                `json:"passing_percentage"`
	CreatedBy         string             `json:"created_by"`
	Version           int                `json:"version"`
	QuestionCount     int                `json:"question_count"`
	Locked            bool               `json:"locked"`
	CreatedAt         time.Time          `json:"created_at"`
	Questions         []QuizQuestionView `json:"questions" copier:"-"`
}

// ===== ATTEMPTS =====

type StartResult struct {
	AttemptID uint       `json:"attempt_id"`
	QuizID    uint       `json:"quiz_id"`
	TimeLimit int        `json:"time_limit"`
	StartedAt time.Time  `json:"started_at"`
	Deadline  *time.Time `json:"deadline"`
	Resumed   bool       `json:"resumed"`
	Quiz      *QuizView  `json:"quiz,omitempty"`
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" validate:"required"`
	Answer     string `json:"student_answer" validate:"required,max=10000"`
}

type AnswerResult struct {
	AnswerID       uint                 `json:"answer_id"`
	QuestionID     uint                 `json:"question_id"`
	Score          float64              `json:"score"`
	Feedback       string               `json:"feedback"`
	IsCorrect      bool                 `json:"is_correct"`
	Status         models.GradingStatus `json:"status"`
	DegradedReason string               `json:"degraded_reason,omitempty"`
}

type CompletionRewards struct {
	PointsEarned int                `json:"points_earned"`
	TotalPoints  int                `json:"total_points"`
	Tier         models.Tier        `json:"tier"`
	Streak       int                `json:"streak"`
	NewBadges    []models.BadgeCode `json:"new_badges"`
}

type CompletionResult struct {
	AttemptID       uint                 `json:"attempt_id"`
	Score           float64              `json:"score"`
	TotalQuestions  int                  `json:"total_questions"`
	Answered        int                  `json:"answered"`
	Passed          bool                 `json:"passed"`
	Status          models.AttemptStatus `json:"status"`
	DegradedAnswers int                  `json:"degraded_answers"`
	CompletedAt     *time.Time           `json:"completed_at"`
	Rewards         *CompletionRewards   `json:"rewards,omitempty"`
}

type AttemptSummary struct {
	ID              uint                 `json:"id"`
	QuizID          uint                 `json:"quiz_id"`
	QuizTitle       string               `json:"quiz_title,omitempty" copier:"-"`
	StudentID       string               `json:"student_id"`
	Status          models.AttemptStatus `json:"status"`
	StartedAt       time.Time            `json:"started_at"`
	Deadline        *time.Time           `json:"deadline"`
	CompletedAt     *time.Time           `json:"completed_at"`
	Score           *float64             `json:"score"`
	Passed          *bool                `json:"passed"`
	AnsweredCount   int                  `json:"answered_count"`
	DegradedAnswers int                  `json:"degraded_answers"`
}

type AttemptDetail struct {
	AttemptSummary
	Answers []models.StudentQuizAnswer `json:"answers"`
}

type AttemptListResponse struct {
	Attempts []AttemptSummary `json:"attempts"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ===== GENERATION =====

type GenerateQuestionsRequest struct {
	SourceText string                 `json:"source_text" validate:"required,max=20000"`
	Difficulty models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Count      int                    `json:"count" validate:"omitempty,gte=1,lte=20"`
}

type GenerateQuestionsResponse struct {
	Drafts []ai.DraftQuestion `json:"drafts"`
	Count  int                `json:"count"`
}

type DraftInput struct {
	Text          string   `json:"question_text" validate:"required,max=5000"`
	Options       []string `json:"options" validate:"len=4,dive,required,max=500"`
	CorrectOption string   `json:"correct_option" validate:"required,max=500"`
	Explanation   string   `json:"explanation" validate:"omitempty,max=5000"`
}

type SaveDraftsRequest struct {
	Difficulty models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Drafts     []DraftInput           `json:"drafts" validate:"required,min=1,max=20,dive"`
}
