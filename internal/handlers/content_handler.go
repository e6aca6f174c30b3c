package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
}

func NewContentHandler(contentService services.ContentService, logger utils.Logger) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
	}
}

// ===== SUBJECTS =====

// CreateSubject creates a subject
// @Summary Create subject
// @Tags content
// @Accept json
// @Produce json
// @Param subject body services.CreateSubjectRequest true "Subject"
// @Success 201 {object} models.Subject
// @Router /subjects [post]
func (h *ContentHandler) CreateSubject(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateSubjectRequest
	if !bindJSON(c, &req) {
		return
	}

	subject, err := h.contentService.CreateSubject(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

// ListSubjects lists subjects, optionally for one grade
// @Summary List subjects
// @Tags content
// @Produce json
// @Param grade_level query int false "Grade level"
// @Success 200 {array} models.Subject
// @Router /subjects [get]
func (h *ContentHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.contentService.ListSubjects(c.Request.Context(), parseIntQueryPtr(c, "grade_level"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

// GetSubject retrieves a subject
// @Summary Get subject
// @Tags content
// @Produce json
// @Param id path uint true "Subject ID"
// @Success 200 {object} models.Subject
// @Router /subjects/{id} [get]
func (h *ContentHandler) GetSubject(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	subject, err := h.contentService.GetSubject(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

// ===== CHAPTERS / TOPICS =====

// @Router /chapters [post]
func (h *ContentHandler) CreateChapter(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateChapterRequest
	if !bindJSON(c, &req) {
		return
	}

	chapter, err := h.contentService.CreateChapter(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chapter)
}

// @Router /subjects/{id}/chapters [get]
func (h *ContentHandler) ListChapters(c *gin.Context) {
	subjectID := parseIDParam(c, "id")
	if subjectID == 0 {
		return
	}
	chapters, err := h.contentService.ListChapters(c.Request.Context(), subjectID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, chapters)
}

// @Router /topics [post]
func (h *ContentHandler) CreateTopic(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateTopicRequest
	if !bindJSON(c, &req) {
		return
	}

	topic, err := h.contentService.CreateTopic(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// @Router /chapters/{id}/topics [get]
func (h *ContentHandler) ListTopics(c *gin.Context) {
	chapterID := parseIDParam(c, "id")
	if chapterID == 0 {
		return
	}
	topics, err := h.contentService.ListTopics(c.Request.Context(), chapterID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, topics)
}

// ===== QUESTIONS =====

// CreateQuestion creates a question in a topic
// @Summary Create question
// @Description MCQ questions need at least two options and exactly one correct option. Free-text questions need a reference answer.
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *ContentHandler) CreateQuestion(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	question, err := h.contentService.CreateQuestion(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// GetQuestion retrieves a question
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Router /questions/{id} [get]
func (h *ContentHandler) GetQuestion(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	question, err := h.contentService.GetQuestion(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ListQuestions lists questions in a topic
// @Summary List topic questions
// @Tags questions
// @Produce json
// @Param id path uint true "Topic ID"
// @Param type query string false "Question type"
// @Param difficulty query string false "Difficulty"
// @Success 200 {object} ListResponse
// @Router /topics/{id}/questions [get]
func (h *ContentHandler) ListQuestions(c *gin.Context) {
	topicID := parseIDParam(c, "id")
	if topicID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := parsePagination(c)
	filters := repositories.QuestionFilters{Limit: limit, Offset: offset}
	if qt := c.Query("type"); qt != "" {
		questionType := models.QuestionType(qt)
		filters.Type = &questionType
	}
	if d := c.Query("difficulty"); d != "" {
		difficulty := models.DifficultyLevel(d)
		filters.Difficulty = &difficulty
	}

	questions, total, err := h.contentService.ListQuestions(c.Request.Context(), topicID, userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	limit, offset = repositories.NormalizePaging(limit, offset)
	c.JSON(http.StatusOK, ListResponse{Items: questions, Total: total, Limit: limit, Offset: offset})
}

// ===== MATERIALS =====

// @Router /materials [post]
func (h *ContentHandler) CreateMaterial(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.CreateMaterialRequest
	if !bindJSON(c, &req) {
		return
	}

	material, err := h.contentService.CreateMaterial(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, material)
}

// @Router /topics/{id}/materials [get]
func (h *ContentHandler) ListMaterials(c *gin.Context) {
	topicID := parseIDParam(c, "id")
	if topicID == 0 {
		return
	}
	materials, err := h.contentService.ListMaterials(c.Request.Context(), topicID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, materials)
}
