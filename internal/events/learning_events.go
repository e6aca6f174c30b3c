package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "learning-service"
	eventVersion = "1.0"
)

// EventType represents the type of learning event
type EventType string

const (
	EventAttemptStarted   EventType = "attempt.started"
	EventAnswerGraded     EventType = "answer.graded"
	EventAttemptCompleted EventType = "attempt.completed"
	EventBadgeAwarded     EventType = "badge.awarded"
	EventQuestionsDrafted EventType = "questions.drafted"
)

// LearningEvent is the envelope published for every event type
type LearningEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Key       string                 `json:"key"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type AttemptStartedEvent struct {
	AttemptID uint       `json:"attempt_id"`
	QuizID    uint       `json:"quiz_id"`
	StudentID string     `json:"student_id"`
	StartedAt time.Time  `json:"started_at"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

type AnswerGradedEvent struct {
	AttemptID      uint    `json:"attempt_id"`
	AnswerID       uint    `json:"answer_id"`
	QuestionID     uint    `json:"question_id"`
	StudentID      string  `json:"student_id"`
	Score          float64 `json:"score"`
	IsCorrect      bool    `json:"is_correct"`
	Degraded       bool    `json:"degraded"`
	DegradedReason string  `json:"degraded_reason,omitempty"`
}

type AttemptCompletedEvent struct {
	AttemptID       uint      `json:"attempt_id"`
	QuizID          uint      `json:"quiz_id"`
	StudentID       string    `json:"student_id"`
	Status          string    `json:"status"`
	Percentage      float64   `json:"percentage"`
	Passed          bool      `json:"passed"`
	DegradedAnswers int       `json:"degraded_answers"`
	CompletedAt     time.Time `json:"completed_at"`
}

type BadgeAwardedEvent struct {
	StudentID string `json:"student_id"`
	BadgeCode string `json:"badge_code"`
	BadgeName string `json:"badge_name"`
}

type QuestionsDraftedEvent struct {
	TeacherID  string `json:"teacher_id"`
	TopicID    uint   `json:"topic_id,omitempty"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// NewLearningEvent wraps data in an envelope. key is used as the Kafka
// partition key so events for one student stay ordered.
func NewLearningEvent(eventType EventType, key string, data interface{}) *LearningEvent {
	return &LearningEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Key:       key,
		Data:      data,
	}
}
