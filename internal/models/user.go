package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleUnset   UserRole = "unset"
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleParent  UserRole = "parent"
)

// Selectable reports whether the role can be chosen by a user.
func (r UserRole) Selectable() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent:
		return true
	}
	return false
}

func (r UserRole) IsSet() bool {
	return r != RoleUnset && r != ""
}

type User struct {
	ID       string   `json:"id" gorm:"primaryKey;size:255"`
	FullName string   `json:"full_name" gorm:"size:100"`
	Email    string   `json:"email" gorm:"index;size:255"`
	Role     UserRole `json:"role" gorm:"size:20;default:unset;index"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Student *StudentProfile `json:"student_profile,omitempty" gorm:"foreignKey:UserID"`
	Teacher *TeacherProfile `json:"teacher_profile,omitempty" gorm:"foreignKey:UserID"`
	Parent  *ParentProfile  `json:"parent_profile,omitempty" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}

type LearningStyle string

const (
	LearningVisual      LearningStyle = "visual"
	LearningAuditory    LearningStyle = "auditory"
	LearningKinesthetic LearningStyle = "kinesthetic"
	LearningReading     LearningStyle = "reading"
)

type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
)

type StudentProfile struct {
	UserID        string        `json:"user_id" gorm:"primaryKey;size:255"`
	Grade         int           `json:"grade" gorm:"default:0"`
	LearningStyle LearningStyle `json:"learning_style" gorm:"size:20;default:visual"`
	TotalPoints   int           `json:"total_points" gorm:"default:0"`
	CurrentTier   Tier          `json:"current_tier" gorm:"size:20;default:Bronze"`
	CurrentStreak int           `json:"current_streak" gorm:"default:0"`
	LastActiveOn  *time.Time    `json:"last_active_on" gorm:"type:date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

type TeacherProfile struct {
	UserID          string `json:"user_id" gorm:"primaryKey;size:255"`
	Qualification   string `json:"qualification" gorm:"size:200"`
	ExperienceYears int    `json:"experience_years" gorm:"default:0"`
	Bio             string `json:"bio" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}

type ParentProfile struct {
	UserID string `json:"user_id" gorm:"primaryKey;size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Children []StudentProfile `json:"children" gorm:"many2many:parent_children;foreignKey:UserID;joinForeignKey:ParentUserID;references:UserID;joinReferences:StudentUserID"`
}

func (ParentProfile) TableName() string {
	return "parent_profiles"
}
