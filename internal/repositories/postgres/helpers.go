package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"gorm.io/gorm"
)

// SharedHelpers holds query helpers used by several repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// conn returns tx when running inside a transaction, the base connection otherwise.
func (h *SharedHelpers) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return h.db.WithContext(ctx)
}

// ApplyPaginationAndSort applies ordering and paging. sortBy must be one of allowed;
// anything else falls back to fallback.
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int, fallback string, allowed ...string) *gorm.DB {
	if !slices.Contains(allowed, sortBy) {
		sortBy = fallback
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s, id %s", sortBy, order, order))

	limit, offset = repositories.NormalizePaging(limit, offset)
	return query.Limit(limit).Offset(offset)
}

// ApplyAttemptFilters applies common attempt filters to a query
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.QuizID != nil {
		query = query.Where("quiz_id = ?", *filters.QuizID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}
