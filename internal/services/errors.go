package services

import (
	"errors"
	"fmt"

	apperrors "github.com/SAP-F-2025/learning-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Catalog errors
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrChapterNotFound  = errors.New("chapter not found")
	ErrTopicNotFound    = errors.New("topic not found")
	ErrQuestionNotFound = errors.New("question not found")

	// Quiz specific errors
	ErrQuizNotFound         = errors.New("quiz not found")
	ErrQuizLocked           = errors.New("quiz is locked")
	ErrQuizQuestionExists   = errors.New("question already in quiz")
	ErrQuestionNotInQuiz    = errors.New("question is not part of this quiz")
	ErrQuizExportNotAllowed = errors.New("only the quiz creator can export results")

	// Attempt specific errors
	ErrAttemptNotFound        = errors.New("attempt not found")
	ErrAttemptNotActive       = errors.New("attempt not active")
	ErrAttemptTimeExpired     = errors.New("attempt time has expired")
	ErrAttemptBusy            = errors.New("attempt is being modified, retry shortly")
	ErrConcurrentModification = errors.New("attempt was modified concurrently")

	// User/role errors
	ErrUserNotFound           = errors.New("user not found")
	ErrStudentProfileNotFound = errors.New("student profile not found")
	ErrInvalidRole            = errors.New("invalid user role")
	ErrRoleAlreadySelected    = errors.New("role already selected")
	ErrInsufficientPermission = errors.New("insufficient permissions")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSubjectNotFound) ||
		errors.Is(err, ErrChapterNotFound) ||
		errors.Is(err, ErrTopicNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrStudentProfileNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	var pe *PermissionError
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientPermission) ||
		errors.Is(err, ErrQuizExportNotAllowed) ||
		errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidRole) || errors.Is(err, ErrQuestionNotInQuiz) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrQuizLocked) ||
		errors.Is(err, ErrQuizQuestionExists) ||
		errors.Is(err, ErrAttemptNotActive) ||
		errors.Is(err, ErrAttemptTimeExpired) ||
		errors.Is(err, ErrAttemptBusy) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrRoleAlreadySelected)
}
