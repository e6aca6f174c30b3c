package repositories

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"gorm.io/gorm"
)

// UserRepository interface for users and their role profiles
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	UpdateIdentity(ctx context.Context, tx *gorm.DB, user *models.User) error

	// SetRoleIfUnset assigns role only while the user has none. It reports
	// false when the user already had a role.
	SetRoleIfUnset(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error)

	CreateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error
	CreateTeacherProfile(ctx context.Context, tx *gorm.DB, profile *models.TeacherProfile) error
	CreateParentProfile(ctx context.Context, tx *gorm.DB, profile *models.ParentProfile) error

	GetStudentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error)
	// GetStudentProfileForUpdate locks the row until tx ends.
	GetStudentProfileForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error)
	UpdateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error
	GetTeacherProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.TeacherProfile, error)
	GetParentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.ParentProfile, error)

	AddChild(ctx context.Context, tx *gorm.DB, parentID, studentID string) error
	IsParentOf(ctx context.Context, tx *gorm.DB, parentID, studentID string) (bool, error)
}
