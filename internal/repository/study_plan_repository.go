package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/cronoplan/cronoplan-api/internal/models"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
)

const pqUniqueViolation = "23505"

// StudyPlanRepository persists generated study calendars. The write methods
// run on the caller's transaction so delete-and-replace is atomic.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository creates a new study plan repository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

// DeleteByStudent removes the student's plan; items cascade with the header.
func (r *StudyPlanRepository) DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM study_plans WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("delete study plan for student %s: %w", studentID, err)
	}
	return nil
}

// Create inserts a plan header. A unique violation on student_id means a
// concurrent generation won the race; it maps to a retryable conflict.
func (r *StudyPlanRepository) Create(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO study_plans
		(id, student_id, name, modality, start_date, end_date, hours_per_day, days_per_week, playback_speed, filters, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := exec.ExecContext(ctx, query,
		plan.ID, plan.StudentID, plan.Name, plan.Modality,
		plan.StartDate, plan.EndDate, plan.HoursPerDay, plan.DaysPerWeek,
		plan.PlaybackSpeed, plan.Filters, plan.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return appErrors.Clone(appErrors.ErrConflict, "a concurrent generation already created a plan for this student")
		}
		return fmt.Errorf("create study plan: %w", err)
	}
	return nil
}

// BulkInsertItems stores the ordered slots of a plan in one batch.
func (r *StudyPlanRepository) BulkInsertItems(ctx context.Context, exec sqlx.ExtContext, items []models.StudyPlanItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}

	const query = `INSERT INTO study_plan_items
		(id, study_plan_id, lesson_id, lesson_name, subject_name, frente_name, week_number, order_in_week, cost_minutes)
		VALUES (:id, :study_plan_id, :lesson_id, :lesson_name, :subject_name, :frente_name, :week_number, :order_in_week, :cost_minutes)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, items); err != nil {
		return fmt.Errorf("insert study plan items: %w", err)
	}
	return nil
}

// FindByStudent loads the plan header owned by the student.
func (r *StudyPlanRepository) FindByStudent(ctx context.Context, studentID string) (*models.StudyPlan, error) {
	const query = `SELECT id, student_id, name, modality, start_date, end_date, hours_per_day, days_per_week, playback_speed, filters, created_at
		FROM study_plans WHERE student_id = $1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, studentID); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ListItems returns the plan's slots in calendar order.
func (r *StudyPlanRepository) ListItems(ctx context.Context, planID string) ([]models.StudyPlanItem, error) {
	const query = `SELECT id, study_plan_id, lesson_id, lesson_name, subject_name, frente_name, week_number, order_in_week, cost_minutes
		FROM study_plan_items WHERE study_plan_id = $1 ORDER BY week_number, order_in_week`
	var items []models.StudyPlanItem
	if err := r.db.SelectContext(ctx, &items, query, planID); err != nil {
		return nil, fmt.Errorf("list study plan items: %w", err)
	}
	return items, nil
}
