package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cronoplan/cronoplan-api/internal/models"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudyPlanRepositoryDeleteByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec("DELETE FROM study_plans WHERE student_id").
		WithArgs("student-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteByStudent(context.Background(), db, "student-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec("INSERT INTO study_plans").
		WillReturnResult(sqlmock.NewResult(1, 1))

	plan := &models.StudyPlan{
		StudentID:     "student-1",
		Name:          "Extensivo",
		Modality:      models.ModalityParallel,
		StartDate:     time.Now(),
		EndDate:       time.Now().AddDate(0, 1, 0),
		HoursPerDay:   2,
		DaysPerWeek:   5,
		PlaybackSpeed: 1.0,
		Filters:       []byte(`{}`),
	}
	require.NoError(t, repo.Create(context.Background(), db, plan))
	assert.NotEmpty(t, plan.ID)
	assert.False(t, plan.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec("INSERT INTO study_plans").
		WillReturnError(&pq.Error{Code: "23505"})

	plan := &models.StudyPlan{StudentID: "student-1", Filters: []byte(`{}`)}
	err := repo.Create(context.Background(), db, plan)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryBulkInsertItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectExec("INSERT INTO study_plan_items").
		WillReturnResult(sqlmock.NewResult(0, 2))

	items := []models.StudyPlanItem{
		{StudyPlanID: "plan-1", LessonID: "l1", LessonName: "Aula 1", SubjectName: "Matemática", WeekNumber: 1, OrderInWeek: 1, CostMinutes: 30},
		{StudyPlanID: "plan-1", LessonID: "l2", LessonName: "Aula 2", SubjectName: "Matemática", WeekNumber: 1, OrderInWeek: 2, CostMinutes: 30},
	}
	require.NoError(t, repo.BulkInsertItems(context.Background(), db, items))
	assert.NotEmpty(t, items[0].ID)
	assert.NotEmpty(t, items[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryBulkInsertItemsEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	require.NoError(t, repo.BulkInsertItems(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudyPlanRepositoryFindAndListItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudyPlanRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM study_plans WHERE student_id").
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "name", "modality", "start_date", "end_date",
			"hours_per_day", "days_per_week", "playback_speed", "filters", "created_at",
		}).AddRow("plan-1", "student-1", "Extensivo", "parallel", time.Now(), time.Now(), 2.0, 5, 1.0, []byte(`{}`), time.Now()))

	plan, err := repo.FindByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, models.ModalityParallel, plan.Modality)

	frente := "Álgebra"
	mock.ExpectQuery("SELECT (.+) FROM study_plan_items WHERE study_plan_id").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "study_plan_id", "lesson_id", "lesson_name", "subject_name",
			"frente_name", "week_number", "order_in_week", "cost_minutes",
		}).
			AddRow("item-1", "plan-1", "l1", "Aula 1", "Matemática", frente, 1, 1, 30.0).
			AddRow("item-2", "plan-1", "l2", "Aula 2", "Matemática", nil, 1, 2, 45.0))

	items, err := repo.ListItems(context.Background(), "plan-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].FrenteName)
	assert.Equal(t, "Álgebra", *items[0].FrenteName)
	assert.Nil(t, items[1].FrenteName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
