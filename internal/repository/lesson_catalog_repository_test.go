package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cronoplan/cronoplan-api/internal/models"
)

func lessonRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "lesson_number", "estimated_minutes", "priority",
		"module_id", "module_number", "frente_id", "frente_name",
		"subject_id", "subject_name",
	})
}

func TestLessonCatalogFetchEligible(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonCatalogRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM lessons l").
		WithArgs(1, "mat", "student-1").
		WillReturnRows(lessonRows().
			AddRow("l1", "Aula 1", 1, 20, 3, "mod-1", 1, "algebra", "Álgebra", "mat", "Matemática").
			AddRow("l2", "Aula 2", 2, nil, 3, nil, nil, nil, nil, "mat", "Matemática"))

	lessons, err := repo.FetchEligible(context.Background(), models.LessonFilter{
		StudentID:        "student-1",
		SubjectIDs:       []string{"mat"},
		MinPriority:      1,
		ExcludeCompleted: true,
	})
	require.NoError(t, err)
	require.Len(t, lessons, 2)

	require.NotNil(t, lessons[0].EstimatedMinutes)
	assert.Equal(t, 20, *lessons[0].EstimatedMinutes)
	require.NotNil(t, lessons[0].FrenteID)
	assert.Equal(t, "algebra", *lessons[0].FrenteID)

	assert.Nil(t, lessons[1].EstimatedMinutes)
	assert.Nil(t, lessons[1].FrenteID)
	assert.Nil(t, lessons[1].ModuleID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonCatalogFetchEligibleOptionalFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonCatalogRepository(db)

	course := "course-1"
	mock.ExpectQuery("SELECT (.+) FROM lessons l").
		WithArgs(2, "mat", "fis", "mod-1", "mod-2", course).
		WillReturnRows(lessonRows())

	lessons, err := repo.FetchEligible(context.Background(), models.LessonFilter{
		StudentID:        "student-1",
		SubjectIDs:       []string{"mat", "fis"},
		ModuleIDs:        []string{"mod-1", "mod-2"},
		CourseID:         &course,
		MinPriority:      2,
		ExcludeCompleted: false,
	})
	require.NoError(t, err)
	assert.Empty(t, lessons)
	assert.NoError(t, mock.ExpectationsWereMet())
}
