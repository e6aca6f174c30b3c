package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockGamificationService struct {
	services.GamificationService
	mock.Mock
}

func (m *MockGamificationService) ListMyPerformance(ctx context.Context, studentID string) ([]*models.PerformanceAnalytics, error) {
	args := m.Called(ctx, studentID)
	records, _ := args.Get(0).([]*models.PerformanceAnalytics)
	return records, args.Error(1)
}

func setupUserRouter(gamification *MockGamificationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(nil, gamification, testLogger())

	router := gin.New()
	router.Use(fakeAuth)
	router.GET("/performance", h.ListMyPerformance)
	return router
}

func TestUserHandler_ListMyPerformance(t *testing.T) {
	t.Run("lists chapter records", func(t *testing.T) {
		gamification := &MockGamificationService{}
		gamification.On("ListMyPerformance", mock.Anything, "stu-1").Return([]*models.PerformanceAnalytics{
			{ID: 1, StudentID: "stu-1", ChapterID: 7, Attempts: 2, Accuracy: 70, Consistency: 90, Speed: 17.5},
		}, nil)
		router := setupUserRouter(gamification)

		w := doRequest(router, http.MethodGet, "/performance", "stu-1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var records []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		require.Len(t, records, 1)
		assert.Equal(t, 70.0, records[0]["accuracy"])
		assert.Equal(t, 17.5, records[0]["speed"])
		assert.NotContains(t, records[0], "ScoreM2")
		assert.NotContains(t, records[0], "score_m2")
		gamification.AssertExpectations(t)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		router := setupUserRouter(&MockGamificationService{})

		w := doRequest(router, http.MethodGet, "/performance", "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("service failure", func(t *testing.T) {
		gamification := &MockGamificationService{}
		gamification.On("ListMyPerformance", mock.Anything, "stu-1").Return(nil, errors.New("db down"))
		router := setupUserRouter(gamification)

		w := doRequest(router, http.MethodGet, "/performance", "stu-1", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
