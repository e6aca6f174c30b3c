package handlers

import (
	"net/http"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	userHandler       *UserHandler
	contentHandler    *ContentHandler
	quizHandler       *QuizHandler
	attemptHandler    *AttemptHandler
	generationHandler *GenerationHandler
}

func NewHandlerManager(serviceManager *services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		userHandler:       NewUserHandler(serviceManager.User, serviceManager.Gamification, logger),
		contentHandler:    NewContentHandler(serviceManager.Content, logger),
		quizHandler:       NewQuizHandler(serviceManager.Quiz, logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt, serviceManager.Export, logger),
		generationHandler: NewGenerationHandler(serviceManager.Generation, logger),
	}
}

// NewRouter builds the gin engine with the shared middleware stack.
func NewRouter(logger utils.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(monitoring.MetricsMiddleware())

	corsConfig := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig))
	return router
}

// SetupRoutes sets up all API routes. auth guards everything under /api/v1.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", HealthCheck)
	router.GET("/metrics", monitoring.PrometheusHandler())

	v1 := router.Group("/api/v1")
	v1.Use(auth)
	{
		// User and role routes
		v1.GET("/me", hm.userHandler.GetMe)
		v1.POST("/me/role", hm.userHandler.SelectRole)
		v1.GET("/student/dashboard", hm.userHandler.StudentDashboard)
		v1.GET("/teacher/dashboard", hm.userHandler.TeacherDashboard)
		v1.GET("/parent/dashboard", hm.userHandler.ParentDashboard)
		v1.POST("/parent/children", hm.userHandler.LinkChild)
		v1.GET("/badges/mine", hm.userHandler.ListMyBadges)
		v1.GET("/performance", hm.userHandler.ListMyPerformance)

		// Catalog routes
		subjects := v1.Group("/subjects")
		{
			subjects.POST("", hm.contentHandler.CreateSubject)
			subjects.GET("", hm.contentHandler.ListSubjects)
			subjects.GET("/:id", hm.contentHandler.GetSubject)
			subjects.GET("/:id/chapters", hm.contentHandler.ListChapters)
		}

		chapters := v1.Group("/chapters")
		{
			chapters.POST("", hm.contentHandler.CreateChapter)
			chapters.GET("/:id/topics", hm.contentHandler.ListTopics)
			chapters.GET("/:id/quizzes", hm.quizHandler.ListChapterQuizzes)
		}

		topics := v1.Group("/topics")
		{
			topics.POST("", hm.contentHandler.CreateTopic)
			topics.GET("/:id/questions", hm.contentHandler.ListQuestions)
			topics.GET("/:id/materials", hm.contentHandler.ListMaterials)
		}

		v1.POST("/questions", hm.contentHandler.CreateQuestion)
		v1.GET("/questions/:id", hm.contentHandler.GetQuestion)
		v1.POST("/materials", hm.contentHandler.CreateMaterial)

		// Quiz routes
		quizzes := v1.Group("/quizzes")
		{
			quizzes.POST("", hm.quizHandler.CreateQuiz)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.POST("/:id/questions", hm.quizHandler.AddQuestion)
			quizzes.DELETE("/:id/questions/:question_id", hm.quizHandler.RemoveQuestion)
			quizzes.PUT("/:id/questions/reorder", hm.quizHandler.ReorderQuestions)

			quizzes.POST("/:id/start", hm.attemptHandler.StartAttempt)
			quizzes.GET("/:id/attempts", hm.attemptHandler.ListQuizAttempts)
			quizzes.GET("/:id/export", hm.attemptHandler.ExportQuizResults)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListMyAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/complete", hm.attemptHandler.CompleteAttempt)
		}

		// Question generation routes
		teacher := v1.Group("/teacher")
		{
			teacher.POST("/generate-questions", hm.generationHandler.GenerateQuestions)
			teacher.POST("/topics/:id/drafts", hm.generationHandler.SaveDrafts)
		}
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "learning-service",
	})
}
