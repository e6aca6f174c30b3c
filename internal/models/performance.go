package models

import "time"

// PerformanceAnalytics aggregates a student's frozen attempts within one chapter.
// Accuracy is the mean percentage, Consistency is 100 minus its standard
// deviation and Speed is the mean seconds spent per answered question.
type PerformanceAnalytics struct {
	ID             uint    `json:"id" gorm:"primaryKey"`
	StudentID      string  `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_student_chapter_performance"`
	ChapterID      uint    `json:"chapter_id" gorm:"not null;uniqueIndex:idx_student_chapter_performance"`
	Attempts       int     `json:"attempts" gorm:"not null;default:0"`
	PassedAttempts int     `json:"passed_attempts" gorm:"not null;default:0"`
	Accuracy       float64 `json:"accuracy" gorm:"not null;default:0"`
	BestScore      float64 `json:"best_score" gorm:"not null;default:0"`
	Consistency    float64 `json:"consistency" gorm:"not null;default:0"`
	Speed          float64 `json:"speed" gorm:"not null;default:0"`
	TimedAttempts  int     `json:"-" gorm:"not null;default:0"`
	ScoreM2        float64 `json:"-" gorm:"column:score_m2;not null;default:0"`

	LastUpdated time.Time `json:"last_updated"`

	Chapter *Chapter `json:"chapter,omitempty" gorm:"foreignKey:ChapterID"`
}

func (PerformanceAnalytics) TableName() string {
	return "performance_analytics"
}
