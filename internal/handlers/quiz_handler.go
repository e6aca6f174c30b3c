package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

// CreateQuiz creates a quiz with an initial ordered question list
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} services.QuizView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if !bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz retrieves a quiz with its questions
// @Summary Get quiz
// @Description Answer keys are only included for the quiz creator
// @Tags quizzes
// @Produce json
// @Param id path uint true "Quiz ID"
// @Success 200 {object} services.QuizView
// @Failure 404 {object} ErrorResponse
// @Router /quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	quiz, err := h.quizService.Get(c.Request.Context(), quizID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListChapterQuizzes lists quizzes of a chapter
// @Summary List chapter quizzes
// @Tags quizzes
// @Produce json
// @Param id path uint true "Chapter ID"
// @Success 200 {object} ListResponse
// @Router /chapters/{id}/quizzes [get]
func (h *QuizHandler) ListChapterQuizzes(c *gin.Context) {
	chapterID := parseIDParam(c, "id")
	if chapterID == 0 {
		return
	}

	limit, offset := parsePagination(c)
	quizzes, total, err := h.quizService.ListByChapter(c.Request.Context(), chapterID, limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: quizzes, Total: total, Limit: limit, Offset: offset})
}

// AddQuestion appends a question to a quiz
// @Summary Add question to quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param question body services.AddQuizQuestionRequest true "Question"
// @Success 201 {object} services.QuizView
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/questions [post]
func (h *QuizHandler) AddQuestion(c *gin.Context) {
	quizID := parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.AddQuizQuestionRequest
	if !bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.AddQuestion(c.Request.Context(), quizID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// RemoveQuestion removes a question from a quiz
// @Summary Remove question from quiz
// @Tags quizzes
// @Param id path uint true "Quiz ID"
// @Param question_id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /quizzes/{id}/questions/{question_id} [delete]
func (h *QuizHandler) RemoveQuestion(c *gin.Context) {
	quizID := parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	questionID := parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.quizService.RemoveQuestion(c.Request.Context(), quizID, questionID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question removed from quiz"})
}

// ReorderQuestions sets the order of quiz questions
// @Summary Reorder quiz questions
// @Tags quizzes
// @Accept json
// @Produce json
// @Param id path uint true "Quiz ID"
// @Param orders body services.ReorderQuestionsRequest true "New order"
// @Success 200 {object} services.QuizView
// @Router /quizzes/{id}/questions/reorder [put]
func (h *QuizHandler) ReorderQuestions(c *gin.Context) {
	quizID := parseIDParam(c, "id")
	if quizID == 0 {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.ReorderQuestionsRequest
	if !bindJSON(c, &req) {
		return
	}

	quiz, err := h.quizService.ReorderQuestions(c.Request.Context(), quizID, userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}
