package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	BaseHandler
	userService         services.UserService
	gamificationService services.GamificationService
}

func NewUserHandler(
	userService services.UserService,
	gamificationService services.GamificationService,
	logger utils.Logger,
) *UserHandler {
	return &UserHandler{
		BaseHandler:         NewBaseHandler(logger),
		userService:         userService,
		gamificationService: gamificationService,
	}
}

// GetMe returns the caller with the profile of their role
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SelectRole sets the caller's role once
// @Summary Select role
// @Tags users
// @Accept json
// @Produce json
// @Param role body services.SelectRoleRequest true "Role"
// @Success 200 {object} models.User
// @Failure 409 {object} ErrorResponse
// @Router /me/role [post]
func (h *UserHandler) SelectRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.SelectRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Selecting role", "role", req.Role)

	user, err := h.userService.SelectRole(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Router /student/dashboard [get]
func (h *UserHandler) StudentDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.userService.StudentDashboard(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// @Router /teacher/dashboard [get]
func (h *UserHandler) TeacherDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.userService.TeacherDashboard(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// @Router /parent/dashboard [get]
func (h *UserHandler) ParentDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dashboard, err := h.userService.ParentDashboard(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// LinkChild links a student to the calling parent
// @Summary Link child
// @Tags users
// @Accept json
// @Param child body services.LinkChildRequest true "Student"
// @Success 201 {object} SuccessResponse
// @Router /parent/children [post]
func (h *UserHandler) LinkChild(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.LinkChildRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.LinkChild(c.Request.Context(), userID, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, SuccessResponse{Message: "Child linked"})
}

// ListMyBadges lists badges earned by the caller
// @Summary My badges
// @Tags users
// @Produce json
// @Success 200 {array} models.StudentBadge
// @Router /badges/mine [get]
func (h *UserHandler) ListMyBadges(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	badges, err := h.gamificationService.ListMyBadges(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, badges)
}

// ListMyPerformance lists the caller's per-chapter performance
// @Summary My performance
// @Tags users
// @Produce json
// @Success 200 {array} models.PerformanceAnalytics
// @Router /performance [get]
func (h *UserHandler) ListMyPerformance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	records, err := h.gamificationService.ListMyPerformance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
