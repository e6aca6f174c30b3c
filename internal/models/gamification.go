package models

import "time"

type BadgeCode string

const (
	BadgeFirstQuiz    BadgeCode = "first_quiz"
	BadgePerfectScore BadgeCode = "perfect_score"
	BadgeQuizStreak   BadgeCode = "quiz_streak_7"
	BadgeHighAchiever BadgeCode = "high_achiever"
)

type Badge struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        BadgeCode `json:"code" gorm:"not null;uniqueIndex;size:50"`
	Name        string    `json:"name" gorm:"not null;size:100"`
	Icon        string    `json:"icon" gorm:"size:50"`
	Description string    `json:"description" gorm:"type:text"`
	Requirement string    `json:"requirement" gorm:"type:text"`
}

func (Badge) TableName() string {
	return "badges"
}

type StudentBadge struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StudentID string    `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_badge"`
	BadgeID   uint      `json:"badge_id" gorm:"not null;uniqueIndex:idx_student_badge"`
	EarnedAt  time.Time `json:"earned_at" gorm:"not null"`

	Badge *Badge `json:"badge,omitempty" gorm:"foreignKey:BadgeID"`
}

func (StudentBadge) TableName() string {
	return "student_badges"
}

// DefaultBadges is the catalog seeded at migration.
var DefaultBadges = []Badge{
	{Code: BadgeFirstQuiz, Name: "First Steps", Icon: "🎯", Description: "Completed your first quiz", Requirement: "Complete 1 quiz"},
	{Code: BadgePerfectScore, Name: "Perfectionist", Icon: "💯", Description: "Scored 100% on a quiz", Requirement: "Score 100% on any quiz"},
	{Code: BadgeQuizStreak, Name: "On Fire", Icon: "🔥", Description: "Stayed active seven days in a row", Requirement: "Reach a 7 day streak"},
	{Code: BadgeHighAchiever, Name: "High Achiever", Icon: "🏆", Description: "Passed five quizzes", Requirement: "Pass 5 quizzes"},
}
