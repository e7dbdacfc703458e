package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cronoplan/cronoplan-api/internal/models"
)

func TestLessonCostAppliesOverheadToAdjustedTime(t *testing.T) {
	minutes := 20
	lesson := models.Lesson{ID: "l1", EstimatedMinutes: &minutes}

	assert.Equal(t, 30.0, LessonCost(lesson, 1.0))
	assert.Equal(t, 15.0, LessonCost(lesson, 2.0))
	assert.Equal(t, 20.0, LessonCost(lesson, 1.5))
}

func TestLessonCostDefaultsMissingEstimate(t *testing.T) {
	lesson := models.Lesson{ID: "l1"}

	assert.Equal(t, 45.0, LessonCost(lesson, 1.0))
	assert.Equal(t, 22.5, LessonCost(lesson, 2.0))
}

func TestLessonCostRejectsNonPositiveSpeed(t *testing.T) {
	minutes := 40
	lesson := models.Lesson{ID: "l1", EstimatedMinutes: &minutes}

	assert.Equal(t, LessonCost(lesson, 1.0), LessonCost(lesson, 0))
	assert.Equal(t, LessonCost(lesson, 1.0), LessonCost(lesson, -2))
}

func TestAnnotateCostsPreservesOrder(t *testing.T) {
	ten, twenty := 10, 20
	lessons := []models.Lesson{
		{ID: "a", EstimatedMinutes: &ten},
		{ID: "b", EstimatedMinutes: &twenty},
		{ID: "c"},
	}

	costed := AnnotateCosts(lessons, 1.0)
	require.Len(t, costed, 3)
	assert.Equal(t, "a", costed[0].ID)
	assert.Equal(t, 15.0, costed[0].CostMinutes)
	assert.Equal(t, "b", costed[1].ID)
	assert.Equal(t, 30.0, costed[1].CostMinutes)
	assert.Equal(t, "c", costed[2].ID)
	assert.Equal(t, 45.0, costed[2].CostMinutes)
}
