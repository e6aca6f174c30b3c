package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ret returns the typed value at index i, tolerating a nil mock return.
func ret[T any](args mock.Arguments, i int) T {
	var zero T
	if v := args.Get(i); v != nil {
		return v.(T)
	}
	return zero
}

// ===== REPOSITORY AGGREGATE =====

type MockRepository struct {
	user         *MockUserRepository
	content      *MockContentRepository
	quiz         *MockQuizRepository
	attempt      *MockAttemptRepository
	answer       *MockAnswerRepository
	gamification *MockGamificationRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		user:         &MockUserRepository{},
		content:      &MockContentRepository{},
		quiz:         &MockQuizRepository{},
		attempt:      &MockAttemptRepository{},
		answer:       &MockAnswerRepository{},
		gamification: &MockGamificationRepository{},
	}
}

func (m *MockRepository) User() repositories.UserRepository                 { return m.user }
func (m *MockRepository) Content() repositories.ContentRepository           { return m.content }
func (m *MockRepository) Quiz() repositories.QuizRepository                 { return m.quiz }
func (m *MockRepository) Attempt() repositories.AttemptRepository           { return m.attempt }
func (m *MockRepository) Answer() repositories.AnswerRepository             { return m.answer }
func (m *MockRepository) Gamification() repositories.GamificationRepository { return m.gamification }

// WithTransaction runs fn without a real transaction; mocks receive a nil tx.
func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *MockRepository) AssertExpectations(t mock.TestingT) {
	m.user.AssertExpectations(t)
	m.content.AssertExpectations(t)
	m.quiz.AssertExpectations(t)
	m.attempt.AssertExpectations(t)
	m.answer.AssertExpectations(t)
	m.gamification.AssertExpectations(t)
}

// ===== USERS =====

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return m.Called(ctx, tx, user).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.User](args, 0), args.Error(1)
}

func (m *MockUserRepository) UpdateIdentity(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return m.Called(ctx, tx, user).Error(0)
}

func (m *MockUserRepository) SetRoleIfUnset(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error) {
	args := m.Called(ctx, tx, id, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) CreateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockUserRepository) CreateTeacherProfile(ctx context.Context, tx *gorm.DB, profile *models.TeacherProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockUserRepository) CreateParentProfile(ctx context.Context, tx *gorm.DB, profile *models.ParentProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockUserRepository) GetStudentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error) {
	args := m.Called(ctx, tx, userID)
	return ret[*models.StudentProfile](args, 0), args.Error(1)
}

func (m *MockUserRepository) GetStudentProfileForUpdate(ctx context.Context, tx *gorm.DB, userID string) (*models.StudentProfile, error) {
	args := m.Called(ctx, tx, userID)
	return ret[*models.StudentProfile](args, 0), args.Error(1)
}

func (m *MockUserRepository) UpdateStudentProfile(ctx context.Context, tx *gorm.DB, profile *models.StudentProfile) error {
	return m.Called(ctx, tx, profile).Error(0)
}

func (m *MockUserRepository) GetTeacherProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.TeacherProfile, error) {
	args := m.Called(ctx, tx, userID)
	return ret[*models.TeacherProfile](args, 0), args.Error(1)
}

func (m *MockUserRepository) GetParentProfile(ctx context.Context, tx *gorm.DB, userID string) (*models.ParentProfile, error) {
	args := m.Called(ctx, tx, userID)
	return ret[*models.ParentProfile](args, 0), args.Error(1)
}

func (m *MockUserRepository) AddChild(ctx context.Context, tx *gorm.DB, parentID, studentID string) error {
	return m.Called(ctx, tx, parentID, studentID).Error(0)
}

func (m *MockUserRepository) IsParentOf(ctx context.Context, tx *gorm.DB, parentID, studentID string) (bool, error) {
	args := m.Called(ctx, tx, parentID, studentID)
	return args.Bool(0), args.Error(1)
}

// ===== CONTENT =====

type MockContentRepository struct {
	mock.Mock
}

func (m *MockContentRepository) CreateSubject(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	return m.Called(ctx, tx, subject).Error(0)
}

func (m *MockContentRepository) GetSubject(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Subject](args, 0), args.Error(1)
}

func (m *MockContentRepository) ListSubjects(ctx context.Context, tx *gorm.DB, gradeLevel *int) ([]*models.Subject, error) {
	args := m.Called(ctx, tx, gradeLevel)
	return ret[[]*models.Subject](args, 0), args.Error(1)
}

func (m *MockContentRepository) CreateChapter(ctx context.Context, tx *gorm.DB, chapter *models.Chapter) error {
	return m.Called(ctx, tx, chapter).Error(0)
}

func (m *MockContentRepository) GetChapter(ctx context.Context, tx *gorm.DB, id uint) (*models.Chapter, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Chapter](args, 0), args.Error(1)
}

func (m *MockContentRepository) ListChapters(ctx context.Context, tx *gorm.DB, subjectID uint) ([]*models.Chapter, error) {
	args := m.Called(ctx, tx, subjectID)
	return ret[[]*models.Chapter](args, 0), args.Error(1)
}

func (m *MockContentRepository) CreateTopic(ctx context.Context, tx *gorm.DB, topic *models.Topic) error {
	return m.Called(ctx, tx, topic).Error(0)
}

func (m *MockContentRepository) GetTopic(ctx context.Context, tx *gorm.DB, id uint) (*models.Topic, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Topic](args, 0), args.Error(1)
}

func (m *MockContentRepository) ListTopics(ctx context.Context, tx *gorm.DB, chapterID uint) ([]*models.Topic, error) {
	args := m.Called(ctx, tx, chapterID)
	return ret[[]*models.Topic](args, 0), args.Error(1)
}

func (m *MockContentRepository) CreateQuestion(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	return m.Called(ctx, tx, question).Error(0)
}

func (m *MockContentRepository) GetQuestion(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Question](args, 0), args.Error(1)
}

func (m *MockContentRepository) ListQuestions(ctx context.Context, tx *gorm.DB, topicID uint, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, tx, topicID, filters)
	return ret[[]*models.Question](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockContentRepository) CreateMaterial(ctx context.Context, tx *gorm.DB, material *models.StudyMaterial) error {
	return m.Called(ctx, tx, material).Error(0)
}

func (m *MockContentRepository) ListMaterials(ctx context.Context, tx *gorm.DB, topicID uint) ([]*models.StudyMaterial, error) {
	args := m.Called(ctx, tx, topicID)
	return ret[[]*models.StudyMaterial](args, 0), args.Error(1)
}

// ===== QUIZZES =====

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	return m.Called(ctx, tx, quiz).Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Quiz](args, 0), args.Error(1)
}

func (m *MockQuizRepository) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.Quiz](args, 0), args.Error(1)
}

func (m *MockQuizRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, tx, filters)
	return ret[[]*models.Quiz](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) Touch(ctx context.Context, tx *gorm.DB, id uint) error {
	return m.Called(ctx, tx, id).Error(0)
}

func (m *MockQuizRepository) CountQuestions(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	args := m.Called(ctx, tx, quizID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuizRepository) QuestionIDs(ctx context.Context, tx *gorm.DB, quizID uint) ([]uint, error) {
	args := m.Called(ctx, tx, quizID)
	return ret[[]uint](args, 0), args.Error(1)
}

func (m *MockQuizRepository) GetQuizQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) (*models.QuizQuestion, error) {
	args := m.Called(ctx, tx, quizID, questionID)
	return ret[*models.QuizQuestion](args, 0), args.Error(1)
}

func (m *MockQuizRepository) AddQuestion(ctx context.Context, tx *gorm.DB, qq *models.QuizQuestion) error {
	return m.Called(ctx, tx, qq).Error(0)
}

func (m *MockQuizRepository) RemoveQuestion(ctx context.Context, tx *gorm.DB, quizID, questionID uint) error {
	return m.Called(ctx, tx, quizID, questionID).Error(0)
}

func (m *MockQuizRepository) ReorderQuestions(ctx context.Context, tx *gorm.DB, quizID uint, orders []repositories.QuestionOrder) error {
	return m.Called(ctx, tx, quizID, orders).Error(0)
}

func (m *MockQuizRepository) MaxOrder(ctx context.Context, tx *gorm.DB, quizID uint) (int, error) {
	args := m.Called(ctx, tx, quizID)
	return args.Int(0), args.Error(1)
}

// ===== ATTEMPTS =====

type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.QuizAttempt](args, 0), args.Error(1)
}

func (m *MockAttemptRepository) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, id)
	return ret[*models.QuizAttempt](args, 0), args.Error(1)
}

func (m *MockAttemptRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, tx, filters)
	return ret[[]*models.QuizAttempt](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttemptRepository) GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, quizID uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, tx, studentID, quizID)
	return ret[*models.QuizAttempt](args, 0), args.Error(1)
}

func (m *MockAttemptRepository) HasAttempts(ctx context.Context, tx *gorm.DB, quizID uint) (bool, error) {
	args := m.Called(ctx, tx, quizID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttemptRepository) UpdateWithVersion(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *MockAttemptRepository) TouchActive(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	return m.Called(ctx, tx, attempt).Error(0)
}

func (m *MockAttemptRepository) GetStudentStats(ctx context.Context, tx *gorm.DB, studentID string) (*repositories.StudentAttemptStats, error) {
	args := m.Called(ctx, tx, studentID)
	return ret[*repositories.StudentAttemptStats](args, 0), args.Error(1)
}

type MockAnswerRepository struct {
	mock.Mock
}

func (m *MockAnswerRepository) Create(ctx context.Context, tx *gorm.DB, answer *models.StudentQuizAnswer) error {
	return m.Called(ctx, tx, answer).Error(0)
}

func (m *MockAnswerRepository) ListByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]*models.StudentQuizAnswer, error) {
	args := m.Called(ctx, tx, attemptID)
	return ret[[]*models.StudentQuizAnswer](args, 0), args.Error(1)
}

// ===== GAMIFICATION =====

type MockGamificationRepository struct {
	mock.Mock
}

func (m *MockGamificationRepository) SeedBadges(ctx context.Context, tx *gorm.DB, badges []models.Badge) error {
	return m.Called(ctx, tx, badges).Error(0)
}

func (m *MockGamificationRepository) ListBadges(ctx context.Context, tx *gorm.DB) ([]*models.Badge, error) {
	args := m.Called(ctx, tx)
	return ret[[]*models.Badge](args, 0), args.Error(1)
}

func (m *MockGamificationRepository) GetBadgeByCode(ctx context.Context, tx *gorm.DB, code models.BadgeCode) (*models.Badge, error) {
	args := m.Called(ctx, tx, code)
	return ret[*models.Badge](args, 0), args.Error(1)
}

func (m *MockGamificationRepository) AwardBadge(ctx context.Context, tx *gorm.DB, studentID string, badgeID uint, at time.Time) (bool, error) {
	args := m.Called(ctx, tx, studentID, badgeID, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockGamificationRepository) ListStudentBadges(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.StudentBadge, error) {
	args := m.Called(ctx, tx, studentID)
	return ret[[]*models.StudentBadge](args, 0), args.Error(1)
}

func (m *MockGamificationRepository) GetPerformanceForUpdate(ctx context.Context, tx *gorm.DB, studentID string, chapterID uint) (*models.PerformanceAnalytics, error) {
	args := m.Called(ctx, tx, studentID, chapterID)
	return ret[*models.PerformanceAnalytics](args, 0), args.Error(1)
}

func (m *MockGamificationRepository) SavePerformance(ctx context.Context, tx *gorm.DB, performance *models.PerformanceAnalytics) error {
	return m.Called(ctx, tx, performance).Error(0)
}

func (m *MockGamificationRepository) ListPerformance(ctx context.Context, tx *gorm.DB, studentID string) ([]*models.PerformanceAnalytics, error) {
	args := m.Called(ctx, tx, studentID)
	return ret[[]*models.PerformanceAnalytics](args, 0), args.Error(1)
}

// ===== COLLABORATORS =====

// stubGrader returns a fixed verdict and counts calls.
type stubGrader struct {
	verdict ai.Verdict
	calls   int
}

func (g *stubGrader) Grade(ctx context.Context, req ai.GradeRequest) ai.Verdict {
	g.calls++
	return g.verdict
}

type MockGamificationService struct {
	mock.Mock
}

func (m *MockGamificationService) RecordCompletion(ctx context.Context, attempt *models.QuizAttempt) (*CompletionRewards, error) {
	args := m.Called(ctx, attempt)
	return ret[*CompletionRewards](args, 0), args.Error(1)
}

func (m *MockGamificationService) ListMyBadges(ctx context.Context, studentID string) ([]*models.StudentBadge, error) {
	args := m.Called(ctx, studentID)
	return ret[[]*models.StudentBadge](args, 0), args.Error(1)
}

func (m *MockGamificationService) ListMyPerformance(ctx context.Context, studentID string) ([]*models.PerformanceAnalytics, error) {
	args := m.Called(ctx, studentID)
	return ret[[]*models.PerformanceAnalytics](args, 0), args.Error(1)
}
