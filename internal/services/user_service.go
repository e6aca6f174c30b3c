package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"gorm.io/gorm"
)

const recentAttemptsLimit = 5

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// EnsureUser creates the user on first contact and keeps name and email in
// sync with the identity provider afterwards.
func (s *userService) EnsureUser(ctx context.Context, identity Identity) (*models.User, error) {
	if identity.UserID == "" {
		return nil, ErrUnauthorized
	}

	user, err := s.repo.User().GetByID(ctx, nil, identity.UserID)
	if err == nil {
		if user.FullName == identity.FullName && user.Email == identity.Email {
			return user, nil
		}
		now := time.Now().UTC()
		user.FullName = identity.FullName
		user.Email = identity.Email
		user.LastLoginAt = &now
		if err := s.repo.User().UpdateIdentity(ctx, nil, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		return user, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:          identity.UserID,
		FullName:    identity.FullName,
		Email:       identity.Email,
		Role:        models.RoleUnset,
		LastLoginAt: &now,
	}
	if err := s.repo.User().Create(ctx, nil, user); err != nil {
		// Another request created it first
		if repositories.IsDuplicateKeyError(err) {
			return s.repo.User().GetByID(ctx, nil, identity.UserID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

func (s *userService) GetMe(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	switch user.Role {
	case models.RoleStudent:
		user.Student, err = s.repo.User().GetStudentProfile(ctx, nil, userID)
		if user.Student != nil {
			user.Student.User = nil
		}
	case models.RoleTeacher:
		user.Teacher, err = s.repo.User().GetTeacherProfile(ctx, nil, userID)
	case models.RoleParent:
		user.Parent, err = s.repo.User().GetParentProfile(ctx, nil, userID)
	}
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// SelectRole sets the role of a user that has none and creates the matching
// profile in the same transaction.
func (s *userService) SelectRole(ctx context.Context, userID string, req *SelectRoleRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if !req.Role.Selectable() {
		return nil, ErrInvalidRole
	}

	err := s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		updated, err := s.repo.User().SetRoleIfUnset(ctx, tx, userID, req.Role)
		if err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}
		if !updated {
			if _, err := s.repo.User().GetByID(ctx, tx, userID); repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return ErrRoleAlreadySelected
		}

		switch req.Role {
		case models.RoleStudent:
			style := req.LearningStyle
			if style == "" {
				style = models.LearningVisual
			}
			return s.repo.User().CreateStudentProfile(ctx, tx, &models.StudentProfile{
				UserID:        userID,
				Grade:         req.Grade,
				LearningStyle: style,
				CurrentTier:   models.TierBronze,
			})
		case models.RoleTeacher:
			return s.repo.User().CreateTeacherProfile(ctx, tx, &models.TeacherProfile{
				UserID:          userID,
				Qualification:   req.Qualification,
				ExperienceYears: req.ExperienceYears,
				Bio:             req.Bio,
			})
		case models.RoleParent:
			return s.repo.User().CreateParentProfile(ctx, tx, &models.ParentProfile{UserID: userID})
		}
		return ErrInvalidRole
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Role selected", "user_id", userID, "role", req.Role)
	return s.GetMe(ctx, userID)
}

// ===== DASHBOARDS =====

func (s *userService) StudentDashboard(ctx context.Context, userID string) (*StudentDashboard, error) {
	if _, err := requireRole(ctx, s.repo, userID, "view_student_dashboard", models.RoleStudent); err != nil {
		return nil, err
	}

	profile, err := s.repo.User().GetStudentProfile(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentProfileNotFound
		}
		return nil, fmt.Errorf("failed to get student profile: %w", err)
	}
	profile.User = nil

	badges, err := s.repo.Gamification().ListStudentBadges(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}

	stats, err := s.repo.Attempt().GetStudentStats(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt stats: %w", err)
	}

	recent, _, err := s.repo.Attempt().List(ctx, nil, repositories.AttemptFilters{
		StudentID: &userID,
		Limit:     recentAttemptsLimit,
		SortBy:    "started_at",
		SortOrder: "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent attempts: %w", err)
	}

	return &StudentDashboard{
		Profile:        profile,
		Badges:         badges,
		Stats:          stats,
		RecentAttempts: toAttemptSummaries(recent),
	}, nil
}

func (s *userService) TeacherDashboard(ctx context.Context, userID string) (*TeacherDashboard, error) {
	if _, err := requireRole(ctx, s.repo, userID, "view_teacher_dashboard", models.RoleTeacher); err != nil {
		return nil, err
	}

	profile, err := s.repo.User().GetTeacherProfile(ctx, nil, userID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get teacher profile: %w", err)
	}

	quizzes, total, err := s.repo.Quiz().List(ctx, nil, repositories.QuizFilters{
		CreatedBy: &userID,
		Limit:     repositories.MaxLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	return &TeacherDashboard{
		Profile:      profile,
		Quizzes:      quizzes,
		TotalQuizzes: total,
	}, nil
}

func (s *userService) ParentDashboard(ctx context.Context, userID string) (*ParentDashboard, error) {
	if _, err := requireRole(ctx, s.repo, userID, "view_parent_dashboard", models.RoleParent); err != nil {
		return nil, err
	}

	parent, err := s.repo.User().GetParentProfile(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return &ParentDashboard{Children: []ChildSummary{}}, nil
		}
		return nil, fmt.Errorf("failed to get parent profile: %w", err)
	}

	children := make([]ChildSummary, 0, len(parent.Children))
	for _, child := range parent.Children {
		stats, err := s.repo.Attempt().GetStudentStats(ctx, nil, child.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to get stats for %s: %w", child.UserID, err)
		}
		summary := ChildSummary{
			StudentID:     child.UserID,
			Grade:         child.Grade,
			TotalPoints:   child.TotalPoints,
			CurrentTier:   child.CurrentTier,
			CurrentStreak: child.CurrentStreak,
			Stats:         stats,
		}
		if child.User != nil {
			summary.FullName = child.User.FullName
		}
		children = append(children, summary)
	}

	return &ParentDashboard{Children: children}, nil
}

func (s *userService) LinkChild(ctx context.Context, parentID string, req *LinkChildRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if _, err := requireRole(ctx, s.repo, parentID, "link_child", models.RoleParent); err != nil {
		return err
	}

	if _, err := s.repo.User().GetStudentProfile(ctx, nil, req.StudentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentProfileNotFound
		}
		return fmt.Errorf("failed to get student profile: %w", err)
	}

	if err := s.repo.User().AddChild(ctx, nil, parentID, req.StudentID); err != nil {
		return fmt.Errorf("failed to link child: %w", err)
	}

	s.logger.Info("Child linked", "parent_id", parentID, "student_id", req.StudentID)
	return nil
}
