package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const resultsSheet = "Results"

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ExportQuizResults writes one row per attempt of the quiz to an xlsx workbook.
func (s *exportService) ExportQuizResults(ctx context.Context, quizID uint, teacherID string) ([]byte, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CreatedBy != teacherID {
		return nil, ErrQuizExportNotAllowed
	}

	attempts, err := s.allAttempts(ctx, quizID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	// Write headers
	headers := []interface{}{
		"Attempt ID", "Student ID", "Student Name", "Status", "Started At", "Completed At",
		"Score (%)", "Passed", "Answered", "Degraded Answers",
	}
	if err := writeRow(f, 1, headers); err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for i, attempt := range attempts {
		name, ok := names[attempt.StudentID]
		if !ok {
			if user, err := s.repo.User().GetByID(ctx, nil, attempt.StudentID); err == nil {
				name = user.FullName
			}
			names[attempt.StudentID] = name
		}

		if err := writeRow(f, i+2, attemptRow(attempt, name)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Quiz results exported", "quiz_id", quizID, "rows", len(attempts))
	return buf.Bytes(), nil
}

func (s *exportService) allAttempts(ctx context.Context, quizID uint) ([]*models.QuizAttempt, error) {
	var all []*models.QuizAttempt
	filters := repositories.AttemptFilters{
		QuizID:    &quizID,
		Limit:     repositories.MaxLimit,
		SortBy:    "started_at",
		SortOrder: "asc",
	}
	for {
		page, total, err := s.repo.Attempt().List(ctx, nil, filters)
		if err != nil {
			return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			return all, nil
		}
		filters.Offset += len(page)
	}
}

func attemptRow(attempt *models.QuizAttempt, studentName string) []interface{} {
	const layout = "2006-01-02 15:04:05"

	completed := ""
	if attempt.CompletedAt != nil {
		completed = attempt.CompletedAt.Format(layout)
	}
	var score interface{} = ""
	if attempt.Score != nil {
		score = *attempt.Score
	}
	passed := ""
	if attempt.Passed != nil {
		passed = "Fail"
		if *attempt.Passed {
			passed = "Pass"
		}
	}

	return []interface{}{
		attempt.ID,
		attempt.StudentID,
		studentName,
		string(attempt.Status),
		attempt.StartedAt.Format(layout),
		completed,
		score,
		passed,
		attempt.AnsweredCount,
		attempt.DegradedAnswers,
	}
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}
		if err := f.SetCellValue(resultsSheet, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}
	return nil
}
