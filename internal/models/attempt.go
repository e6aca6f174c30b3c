package models

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptExpired    AttemptStatus = "expired"
)

// Terminal reports whether the attempt has been frozen.
func (s AttemptStatus) Terminal() bool {
	return s == AttemptCompleted || s == AttemptExpired
}

// QuizAttempt is one student's pass through one quiz. A partial unique index
// keeps at most one in_progress attempt per (student, quiz).
type QuizAttempt struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	StudentID   string        `json:"student_id" gorm:"not null;size:255;index"`
	QuizID      uint          `json:"quiz_id" gorm:"not null;index"`
	Status      AttemptStatus `json:"status" gorm:"not null;size:20;default:in_progress;index"`
	StartedAt   time.Time     `json:"started_at" gorm:"not null"`
	Deadline    *time.Time    `json:"deadline"`
	CompletedAt *time.Time    `json:"completed_at"`

	Score           *float64 `json:"score"`
	Passed          *bool    `json:"passed"`
	AnsweredCount   int      `json:"answered_count" gorm:"default:0"`
	DegradedAnswers int      `json:"degraded_answers" gorm:"default:0"`

	Version   int       `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Quiz    *Quiz               `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Answers []StudentQuizAnswer `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnDelete:CASCADE"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// IsOverdue reports whether the attempt's deadline has passed at now.
func (a *QuizAttempt) IsOverdue(now time.Time) bool {
	return a.Deadline != nil && now.After(*a.Deadline)
}

type GradingStatus string

const (
	GradingGraded   GradingStatus = "graded"
	GradingDegraded GradingStatus = "degraded"
)

// StudentQuizAnswer is one submission. Several rows may exist for the same
// (attempt, question); the newest one counts.
type StudentQuizAnswer struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	AttemptID  uint   `json:"attempt_id" gorm:"not null;index:idx_answer_attempt_question"`
	QuestionID uint   `json:"question_id" gorm:"not null;index:idx_answer_attempt_question"`
	Answer     string `json:"student_answer" gorm:"type:text"`

	AIScore        *float64       `json:"ai_score"`
	AIFeedback     string         `json:"ai_feedback" gorm:"type:text"`
	IsCorrect      *bool          `json:"is_correct"`
	GradingStatus  GradingStatus  `json:"grading_status" gorm:"size:20;default:graded"`
	DegradedReason string         `json:"degraded_reason,omitempty" gorm:"size:50"`
	GradingDetails datatypes.JSON `json:"grading_details,omitempty"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"not null"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (StudentQuizAnswer) TableName() string {
	return "student_quiz_answers"
}
