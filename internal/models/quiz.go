package models

import (
	"time"

	"gorm.io/gorm"
)

const DefaultPassingPercentage = 50

type Quiz struct {
	ID                uint   `json:"id" gorm:"primaryKey"`
	Title             string `json:"title" gorm:"not null;size:200;index"`
	Description       string `json:"description" gorm:"type:text"`
	ChapterID         uint   `json:"chapter_id" gorm:"not null;index"`
	TimeLimit         int    `json:"time_limit" gorm:"not null;default:0"` // minutes, 0 means unlimited
	PassingPercentage int    `json:"passing_percentage" gorm:"not null;default:50"`
	CreatedBy         string `json:"created_by" gorm:"not null;size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Version int `json:"version" gorm:"default:1"`

	Chapter   *Chapter       `json:"chapter,omitempty" gorm:"foreignKey:ChapterID"`
	Questions []QuizQuestion `json:"questions,omitempty" gorm:"foreignKey:QuizID;constraint:OnDelete:CASCADE"`

	QuestionCount int `json:"question_count" gorm:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// Deadline returns when an attempt started at startedAt runs out of time,
// or nil when the quiz has no time limit.
func (q *Quiz) Deadline(startedAt time.Time) *time.Time {
	if q.TimeLimit <= 0 {
		return nil
	}
	d := startedAt.Add(time.Duration(q.TimeLimit) * time.Minute)
	return &d
}

type QuizQuestion struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	QuizID     uint `json:"quiz_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_quiz_question"`
	Order      int  `json:"order" gorm:"column:order_index;not null"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}
