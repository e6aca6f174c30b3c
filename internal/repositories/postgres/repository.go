package postgres

import (
	"context"

	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db           *gorm.DB
	user         repositories.UserRepository
	content      repositories.ContentRepository
	quiz         repositories.QuizRepository
	attempt      repositories.AttemptRepository
	answer       repositories.AnswerRepository
	gamification repositories.GamificationRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:           db,
		user:         NewUserPostgreSQL(db),
		content:      NewContentPostgreSQL(db),
		quiz:         NewQuizPostgreSQL(db),
		attempt:      NewAttemptPostgreSQL(db),
		answer:       NewAnswerPostgreSQL(db),
		gamification: NewGamificationPostgreSQL(db),
	}
}

func (r *Repository) User() repositories.UserRepository                 { return r.user }
func (r *Repository) Content() repositories.ContentRepository           { return r.content }
func (r *Repository) Quiz() repositories.QuizRepository                 { return r.quiz }
func (r *Repository) Attempt() repositories.AttemptRepository           { return r.attempt }
func (r *Repository) Answer() repositories.AnswerRepository             { return r.answer }
func (r *Repository) Gamification() repositories.GamificationRepository { return r.gamification }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
