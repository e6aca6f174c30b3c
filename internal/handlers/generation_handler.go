package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type GenerationHandler struct {
	BaseHandler
	generationService services.GenerationService
}

func NewGenerationHandler(generationService services.GenerationService, logger utils.Logger) *GenerationHandler {
	return &GenerationHandler{
		BaseHandler:       NewBaseHandler(logger),
		generationService: generationService,
	}
}

// GenerateQuestions drafts MCQ questions from source text
// @Summary Generate question drafts
// @Description Drafts are returned for review and not stored. An empty list means the model was unavailable.
// @Tags generation
// @Accept json
// @Produce json
// @Param request body services.GenerateQuestionsRequest true "Source"
// @Success 200 {object} services.GenerateQuestionsResponse
// @Router /teacher/generate-questions [post]
func (h *GenerationHandler) GenerateQuestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.GenerateQuestionsRequest
	if !bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Generating questions", "count", req.Count, "difficulty", req.Difficulty)

	resp, err := h.generationService.GenerateQuestions(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SaveDrafts stores reviewed drafts in a topic
// @Summary Save drafts
// @Tags generation
// @Accept json
// @Produce json
// @Param id path uint true "Topic ID"
// @Param request body services.SaveDraftsRequest true "Drafts"
// @Success 201 {array} models.Question
// @Router /teacher/topics/{id}/drafts [post]
func (h *GenerationHandler) SaveDrafts(c *gin.Context) {
	topicID := parseIDParam(c, "id")
	if topicID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.SaveDraftsRequest
	if !bindJSON(c, &req) {
		return
	}

	questions, err := h.generationService.SaveDrafts(c.Request.Context(), topicID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, questions)
}
