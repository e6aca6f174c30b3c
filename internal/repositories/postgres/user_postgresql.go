package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserPostgreSQL struct {
	helpers *SharedHelpers
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (u *UserPostgreSQL) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return u.helpers.conn(ctx, tx).Create(user).Error
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := u.helpers.conn(ctx, tx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) UpdateIdentity(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return u.helpers.conn(ctx, tx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"full_name":     user.FullName,
			"email":         user.Email,
			"last_login_at": user.LastLoginAt,
		}).Error
}

func (u *UserPostgreSQL) SetRoleIfUnset(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error) {
	result := u.helpers.conn(ctx, tx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleUnset).
		Update("role", role)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (u *UserPostgreSQL) CreateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error {
	return u.helpers.conn(ctx, tx).Create(profile).Error
}

func (u *UserPostgreSQL) CreateTeacherProfile(ctx context.Context, tx *gorm.DB, profile *models.TeacherProfile) error {
	return u.helpers.conn(ctx, tx).Create(profile).Error
}

func (u *UserPostgreSQL) CreateParentProfile(ctx context.Context, tx *gorm.DB, profile *models.ParentProfile) error {
	return u.helpers.conn(ctx, tx).Omit("Children").Create(profile).Error
}

func (u *UserPostgreSQL) GetStudentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := u.helpers.conn(ctx, tx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (u *UserPostgreSQL) GetStudentProfileForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := u.helpers.conn(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (u *UserPostgreSQL) UpdateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error {
	return u.helpers.conn(ctx, tx).Model(&models.StudentProfile{}).
		Where("user_id = ?", profile.UserID).
		Updates(map[string]interface{}{
			"grade":          profile.Grade,
			"learning_style": profile.LearningStyle,
			"total_points":   profile.TotalPoints,
			"current_tier":   profile.CurrentTier,
			"current_streak": profile.CurrentStreak,
			"last_active_on": profile.LastActiveOn,
		}).Error
}

func (u *UserPostgreSQL) GetTeacherProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	if err := u.helpers.conn(ctx, tx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (u *UserPostgreSQL) GetParentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.ParentProfile, error) {
	var profile models.ParentProfile
	if err := u.helpers.conn(ctx, tx).
		Preload("Children").
		Preload("Children.User").
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (u *UserPostgreSQL) AddChild(ctx context.Context, tx *gorm.DB, parentID, studentID string) error {
	link := map[string]interface{}{
		"parent_user_id":  parentID,
		"student_user_id": studentID,
	}
	return u.helpers.conn(ctx, tx).
		Table("parent_children").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
}

func (u *UserPostgreSQL) IsParentOf(ctx context.Context, tx *gorm.DB, parentID, studentID string) (bool, error) {
	var count int64
	err := u.helpers.conn(ctx, tx).
		Table("parent_children").
		Where("parent_user_id = ? AND student_user_id = ?", parentID, studentID).
		Count(&count).Error
	return count > 0, err
}
