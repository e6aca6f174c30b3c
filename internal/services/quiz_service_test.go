package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memoryCache round-trips values through JSON like the redis cache does.
type memoryCache struct {
	items   map[string][]byte
	deletes int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = data
	return nil
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := m.items[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.deletes++
	delete(m.items, key)
	return nil
}

func (m *memoryCache) DeletePattern(context.Context, string) error { return nil }

func quizWithQuestions() *models.Quiz {
	return &models.Quiz{
		ID:                1,
		Title:             "Fractions",
		ChapterID:         3,
		TimeLimit:         20,
		PassingPercentage: 60,
		CreatedBy:         "teacher-1",
		Version:           2,
		Questions: []models.QuizQuestion{
			{QuizID: 1, QuestionID: 100, Order: 1, Question: &models.Question{
				ID:   100,
				Text: "1/2 + 1/4 = ?",
				Type: models.QuestionMCQ,
				Options: []models.MCQOption{
					{ID: 1, Position: 0, Text: "3/4", IsCorrect: true},
					{ID: 2, Position: 1, Text: "2/6"},
				},
			}},
			{QuizID: 1, QuestionID: 101, Order: 2, Question: &models.Question{
				ID:     101,
				Text:   "Explain equivalent fractions",
				Type:   models.QuestionShort,
				Answer: &models.QuestionAnswer{CorrectAnswer: "Same value, different numbers"},
			}},
		},
	}
}

func TestQuizService_Get(t *testing.T) {
	t.Run("creator sees the answer key", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), newMemoryCache())
		repo.quiz.On("GetByIDWithQuestions", mock.Anything, mock.Anything, uint(1)).Return(quizWithQuestions(), nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(false, nil)

		view, err := svc.Get(context.Background(), 1, "teacher-1")

		require.NoError(t, err)
		assert.Equal(t, 2, view.QuestionCount)
		assert.False(t, view.Locked)
		require.Len(t, view.Questions[0].Options, 2)
		require.NotNil(t, view.Questions[0].Options[0].Correct)
		assert.True(t, *view.Questions[0].Options[0].Correct)
		require.NotNil(t, view.Questions[1].Reference)
	})

	t.Run("students get a redacted view from cache", func(t *testing.T) {
		repo := newMockRepository()
		store := newMemoryCache()
		svc := NewQuizService(repo, testLogger(), validator.New(), store)
		repo.quiz.On("GetByIDWithQuestions", mock.Anything, mock.Anything, uint(1)).Return(quizWithQuestions(), nil).Once()
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(true, nil)

		_, err := svc.Get(context.Background(), 1, "stu-1")
		require.NoError(t, err)
		view, err := svc.Get(context.Background(), 1, "stu-2")
		require.NoError(t, err)

		assert.True(t, view.Locked)
		assert.Nil(t, view.Questions[0].Options[0].Correct)
		assert.Nil(t, view.Questions[1].Reference)
		repo.quiz.AssertNumberOfCalls(t, "GetByIDWithQuestions", 1)

		// The cached copy still carries the key for the creator
		creatorView, err := svc.Get(context.Background(), 1, "teacher-1")
		require.NoError(t, err)
		assert.NotNil(t, creatorView.Questions[1].Reference)
	})

	t.Run("unknown quiz", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.quiz.On("GetByIDWithQuestions", mock.Anything, mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Get(context.Background(), 9, "stu-1")

		assert.ErrorIs(t, err, ErrQuizNotFound)
	})
}

func TestQuizService_Create(t *testing.T) {
	t.Run("duplicate question ids are rejected", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.user.On("GetByID", mock.Anything, mock.Anything, "teacher-1").Return(&models.User{ID: "teacher-1", Role: models.RoleTeacher}, nil)
		repo.content.On("GetChapter", mock.Anything, mock.Anything, uint(3)).Return(&models.Chapter{ID: 3}, nil)

		_, err := svc.Create(context.Background(), "teacher-1", &CreateQuizRequest{
			Title:       "Fractions",
			ChapterID:   3,
			QuestionIDs: []uint{100, 100},
		})

		assert.True(t, IsValidation(err))
		repo.quiz.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("students cannot create quizzes", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.user.On("GetByID", mock.Anything, mock.Anything, "stu-1").Return(&models.User{ID: "stu-1", Role: models.RoleStudent}, nil)

		_, err := svc.Create(context.Background(), "stu-1", &CreateQuizRequest{Title: "Fractions", ChapterID: 3})

		assert.True(t, IsUnauthorized(err))
	})

	t.Run("creates quiz with ordered questions and default passing mark", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.user.On("GetByID", mock.Anything, mock.Anything, "teacher-1").Return(&models.User{ID: "teacher-1", Role: models.RoleTeacher}, nil)
		repo.content.On("GetChapter", mock.Anything, mock.Anything, uint(3)).Return(&models.Chapter{ID: 3}, nil)
		repo.quiz.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(q *models.Quiz) bool {
			return q.PassingPercentage == models.DefaultPassingPercentage && q.CreatedBy == "teacher-1"
		})).Run(func(args mock.Arguments) {
			args.Get(2).(*models.Quiz).ID = 1
		}).Return(nil)
		repo.content.On("GetQuestion", mock.Anything, mock.Anything, mock.Anything).Return(&models.Question{}, nil)
		repo.quiz.On("AddQuestion", mock.Anything, mock.Anything, &models.QuizQuestion{QuizID: 1, QuestionID: 100, Order: 1}).Return(nil)
		repo.quiz.On("AddQuestion", mock.Anything, mock.Anything, &models.QuizQuestion{QuizID: 1, QuestionID: 101, Order: 2}).Return(nil)
		repo.quiz.On("GetByIDWithQuestions", mock.Anything, mock.Anything, uint(1)).Return(quizWithQuestions(), nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(false, nil)

		view, err := svc.Create(context.Background(), "teacher-1", &CreateQuizRequest{
			Title:       "Fractions",
			ChapterID:   3,
			TimeLimit:   20,
			QuestionIDs: []uint{100, 101},
		})

		require.NoError(t, err)
		assert.Equal(t, uint(1), view.ID)
		repo.AssertExpectations(t)
	})
}

func TestQuizService_StructuralChanges(t *testing.T) {
	t.Run("locked once an attempt exists", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Quiz{ID: 1, CreatedBy: "teacher-1"}, nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(true, nil)

		_, err := svc.AddQuestion(context.Background(), 1, "teacher-1", &AddQuizQuestionRequest{QuestionID: 102})

		assert.ErrorIs(t, err, ErrQuizLocked)
		repo.quiz.AssertNotCalled(t, "AddQuestion", mock.Anything, mock.Anything, mock.Anything)
		repo.quiz.AssertNotCalled(t, "Touch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("only the creator may change a quiz", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Quiz{ID: 1, CreatedBy: "teacher-1"}, nil)

		err := svc.RemoveQuestion(context.Background(), 1, 100, "teacher-2")

		var permErr *PermissionError
		require.ErrorAs(t, err, &permErr)
		assert.Equal(t, "remove_question", permErr.Action)
	})

	t.Run("add appends after the last question and invalidates cache", func(t *testing.T) {
		repo := newMockRepository()
		store := newMemoryCache()
		svc := NewQuizService(repo, testLogger(), validator.New(), store)
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Quiz{ID: 1, CreatedBy: "teacher-1"}, nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(false, nil)
		repo.content.On("GetQuestion", mock.Anything, mock.Anything, uint(102)).Return(&models.Question{ID: 102}, nil)
		repo.quiz.On("GetQuizQuestion", mock.Anything, mock.Anything, uint(1), uint(102)).Return(nil, gorm.ErrRecordNotFound)
		repo.quiz.On("MaxOrder", mock.Anything, mock.Anything, uint(1)).Return(2, nil)
		repo.quiz.On("AddQuestion", mock.Anything, mock.Anything, &models.QuizQuestion{QuizID: 1, QuestionID: 102, Order: 3}).Return(nil)
		repo.quiz.On("Touch", mock.Anything, mock.Anything, uint(1)).Return(nil)
		repo.quiz.On("GetByIDWithQuestions", mock.Anything, mock.Anything, uint(1)).Return(quizWithQuestions(), nil)

		_, err := svc.AddQuestion(context.Background(), 1, "teacher-1", &AddQuizQuestionRequest{QuestionID: 102})

		require.NoError(t, err)
		assert.Equal(t, 1, store.deletes)
		repo.AssertExpectations(t)
	})

	t.Run("question already in quiz", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Quiz{ID: 1, CreatedBy: "teacher-1"}, nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(false, nil)
		repo.content.On("GetQuestion", mock.Anything, mock.Anything, uint(100)).Return(&models.Question{ID: 100}, nil)
		repo.quiz.On("GetQuizQuestion", mock.Anything, mock.Anything, uint(1), uint(100)).Return(&models.QuizQuestion{}, nil)

		_, err := svc.AddQuestion(context.Background(), 1, "teacher-1", &AddQuizQuestionRequest{QuestionID: 100})

		assert.ErrorIs(t, err, ErrQuizQuestionExists)
	})

	t.Run("removing a question outside the quiz", func(t *testing.T) {
		repo := newMockRepository()
		svc := NewQuizService(repo, testLogger(), validator.New(), nil)
		repo.quiz.On("GetByID", mock.Anything, mock.Anything, uint(1)).Return(&models.Quiz{ID: 1, CreatedBy: "teacher-1"}, nil)
		repo.attempt.On("HasAttempts", mock.Anything, mock.Anything, uint(1)).Return(false, nil)
		repo.quiz.On("RemoveQuestion", mock.Anything, mock.Anything, uint(1), uint(555)).Return(gorm.ErrRecordNotFound)

		err := svc.RemoveQuestion(context.Background(), 1, 555, "teacher-1")

		assert.ErrorIs(t, err, ErrQuestionNotInQuiz)
	})
}
