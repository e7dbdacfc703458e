package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/cronoplan/cronoplan-api/internal/models"
)

// LessonCatalogRepository reads the eligible lesson pool for plan generation.
type LessonCatalogRepository struct {
	db *sqlx.DB
}

// NewLessonCatalogRepository creates a new catalog repository.
func NewLessonCatalogRepository(db *sqlx.DB) *LessonCatalogRepository {
	return &LessonCatalogRepository{db: db}
}

// FetchEligible returns the filtered lesson pool, pre-sorted by subject,
// frente, module number and lesson number, which is the order the distributor
// relies on. The module and frente joins are LEFT joins: catalog rows without them
// surface as nullable fields, not as errors. Priority zero rows are always
// excluded. The schema is fixed and versioned; a mismatch surfaces as a
// query error rather than triggering any degraded fallback.
func (r *LessonCatalogRepository) FetchEligible(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	query := `SELECT l.id, l.name, l.lesson_number, l.estimated_minutes, l.priority,
		m.id AS module_id, m.number AS module_number,
		f.id AS frente_id, f.name AS frente_name,
		s.id AS subject_id, s.name AS subject_name
	FROM lessons l
	JOIN subjects s ON s.id = l.subject_id
	LEFT JOIN modules m ON m.id = l.module_id
	LEFT JOIN frentes f ON f.id = m.frente_id
	WHERE l.priority > 0 AND l.priority >= ? AND s.id IN (?)`
	args := []interface{}{filter.MinPriority, filter.SubjectIDs}

	if len(filter.ModuleIDs) > 0 {
		query += " AND m.id IN (?)"
		args = append(args, filter.ModuleIDs)
	}
	if filter.CourseID != nil && *filter.CourseID != "" {
		query += " AND m.course_id = ?"
		args = append(args, *filter.CourseID)
	}
	if filter.ExcludeCompleted {
		query += ` AND NOT EXISTS (
			SELECT 1 FROM lesson_completions c
			WHERE c.lesson_id = l.id AND c.student_id = ?)`
		args = append(args, filter.StudentID)
	}

	query += " ORDER BY s.name, COALESCE(f.name, ''), COALESCE(m.number, 0), l.lesson_number"

	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expand lesson catalog query: %w", err)
	}
	expanded = r.db.Rebind(expanded)

	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, expanded, expandedArgs...); err != nil {
		return nil, fmt.Errorf("fetch eligible lessons: %w", err)
	}
	return lessons, nil
}
