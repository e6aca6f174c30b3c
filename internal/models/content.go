package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMCQ   QuestionType = "mcq"
	QuestionShort QuestionType = "short"
	QuestionEssay QuestionType = "essay"
)

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type MaterialType string

const (
	MaterialNote  MaterialType = "note"
	MaterialVideo MaterialType = "video"
	MaterialImage MaterialType = "image"
	MaterialPDF   MaterialType = "pdf"
	MaterialLink  MaterialType = "link"
)

type Subject struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null;size:100"`
	Description string `json:"description" gorm:"type:text"`
	GradeLevel  int    `json:"grade_level" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Chapters []Chapter `json:"chapters,omitempty" gorm:"foreignKey:SubjectID"`
}

func (Subject) TableName() string {
	return "subjects"
}

type Chapter struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	SubjectID   uint   `json:"subject_id" gorm:"not null;index"`
	Number      int    `json:"number" gorm:"not null"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
	Topics  []Topic  `json:"topics,omitempty" gorm:"foreignKey:ChapterID"`
}

func (Chapter) TableName() string {
	return "chapters"
}

type Topic struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	ChapterID   uint   `json:"chapter_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"not null;size:200"`
	Description string `json:"description" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Chapter *Chapter `json:"chapter,omitempty" gorm:"foreignKey:ChapterID"`
}

func (Topic) TableName() string {
	return "topics"
}

type Question struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	TopicID    uint            `json:"topic_id" gorm:"not null;index"`
	Text       string          `json:"question_text" gorm:"not null;type:text"`
	Type       QuestionType    `json:"question_type" gorm:"not null;size:10;index"`
	Difficulty DifficultyLevel `json:"difficulty" gorm:"not null;size:10;default:medium"`
	Marks      int             `json:"marks" gorm:"not null;default:1"`
	CreatedBy  string          `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Options []MCQOption     `json:"options,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
	Answer  *QuestionAnswer `json:"answer,omitempty" gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

func (Question) TableName() string {
	return "questions"
}

type MCQOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Position   int    `json:"position" gorm:"not null;default:0"`
	Text       string `json:"option_text" gorm:"not null;size:500"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
}

func (MCQOption) TableName() string {
	return "mcq_options"
}

// QuestionAnswer is the reference answer used as grading ground truth.
type QuestionAnswer struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	QuestionID     uint                        `json:"question_id" gorm:"not null;uniqueIndex"`
	CorrectAnswer  string                      `json:"correct_answer" gorm:"type:text"`
	Explanation    string                      `json:"explanation" gorm:"type:text"`
	KeyPoints      datatypes.JSONSlice[string] `json:"key_points"`
	CommonMistakes datatypes.JSONSlice[string] `json:"common_mistakes"`
}

func (QuestionAnswer) TableName() string {
	return "question_answers"
}

// ReferenceText returns the text the grader compares against. MCQ questions
// without an authored answer fall back to their correct options.
func (q *Question) ReferenceText() string {
	if q.Answer != nil && q.Answer.CorrectAnswer != "" {
		return q.Answer.CorrectAnswer
	}
	var text string
	for _, opt := range q.Options {
		if !opt.IsCorrect {
			continue
		}
		if text != "" {
			text += "; "
		}
		text += opt.Text
	}
	return text
}

type StudyMaterial struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	TopicID   uint         `json:"topic_id" gorm:"not null;index"`
	Title     string       `json:"title" gorm:"not null;size:200"`
	Type      MaterialType `json:"material_type" gorm:"not null;size:10"`
	Content   string       `json:"content" gorm:"type:text"`
	URL       string       `json:"url" gorm:"size:500"`
	Rating    float64      `json:"rating" gorm:"default:5"`
	CreatedBy string       `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (StudyMaterial) TableName() string {
	return "study_materials"
}
