package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cronoplan/cronoplan-api/internal/models"
)

func TestDistributeParallelInterleavesFrentes(t *testing.T) {
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 4, 30),
		frenteLessons("mat", "Matemática", "geometria", "Geometria", 4, 30)...,
	)
	weeks := usableWeeks(2, 120)

	allocation := Distribute(lessons, weeks, models.ModalityParallel, nil)

	require.Len(t, allocation.Slots, 8)
	assert.Empty(t, allocation.Unscheduled)

	perWeek := slotsByWeek(allocation)
	for week, slots := range perWeek {
		frentes := map[string]int{}
		for _, slot := range slots {
			frentes[*slot.Lesson.FrenteID]++
		}
		assert.Equal(t, 2, frentes["algebra"], "week %d", week)
		assert.Equal(t, 2, frentes["geometria"], "week %d", week)
	}
}

func TestDistributeParallelHonoursWeeklyCapacity(t *testing.T) {
	lessons := frenteLessons("mat", "Matemática", "algebra", "Álgebra", 3, 60)
	weeks := usableWeeks(2, 100)

	allocation := Distribute(lessons, weeks, models.ModalityParallel, nil)

	require.Len(t, allocation.Slots, 2)
	require.Len(t, allocation.Unscheduled, 1)

	for week, slots := range slotsByWeek(allocation) {
		var used float64
		for _, slot := range slots {
			used += slot.Lesson.CostMinutes
		}
		assert.LessOrEqual(t, used, 100.0, "week %d exceeds its capacity", week)
	}
}

func TestDistributeParallelRefillsLeftoverCapacity(t *testing.T) {
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 2, 50),
		frenteLessons("fis", "Física", "mecanica", "Mecânica", 2, 50)...,
	)
	weeks := usableWeeks(2, 160)

	allocation := Distribute(lessons, weeks, models.ModalityParallel, nil)

	require.Len(t, allocation.Slots, 4)
	assert.Empty(t, allocation.Unscheduled)

	// Quotas are 80 minutes per frente; the indivisible 50-minute lessons
	// leave 60 minutes after the proportional pass, so the refill pass
	// places a third lesson beyond its frente's quota.
	perWeek := slotsByWeek(allocation)
	require.Len(t, perWeek[1], 3)

	frentes := map[string]int{}
	var used float64
	for _, slot := range perWeek[1] {
		frentes[*slot.Lesson.FrenteID]++
		used += slot.Lesson.CostMinutes
	}
	assert.Equal(t, 2, frentes["algebra"])
	assert.Equal(t, 1, frentes["mecanica"])
	assert.LessOrEqual(t, used, 160.0)

	require.Len(t, perWeek[2], 1)
	assert.Equal(t, "mecanica", *perWeek[2][0].Lesson.FrenteID)
}

func TestDistributeSkipsVacationWeeks(t *testing.T) {
	lessons := frenteLessons("mat", "Matemática", "algebra", "Álgebra", 4, 60)
	weeks := []models.WeekCapacity{
		{Number: 1, CapacityMinutes: 120},
		{Number: 2, IsVacation: true},
		{Number: 3, CapacityMinutes: 120},
	}

	for _, modality := range []models.Modality{models.ModalityParallel, models.ModalitySequential} {
		allocation := Distribute(lessons, weeks, modality, nil)
		require.Len(t, allocation.Slots, 4, "modality %s", modality)
		for _, slot := range allocation.Slots {
			assert.NotEqual(t, 2, slot.WeekNumber, "modality %s placed work in a vacation week", modality)
		}
	}
}

func TestDistributeSequentialExhaustsFrentesInOrder(t *testing.T) {
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 3, 60),
		frenteLessons("fis", "Física", "mecanica", "Mecânica", 3, 60)...,
	)
	weeks := usableWeeks(3, 120)

	allocation := Distribute(lessons, weeks, models.ModalitySequential, nil)

	require.Len(t, allocation.Slots, 6)
	assert.Empty(t, allocation.Unscheduled)

	seenMecanica := false
	for _, slot := range allocation.Slots {
		switch *slot.Lesson.FrenteID {
		case "mecanica":
			seenMecanica = true
		case "algebra":
			assert.False(t, seenMecanica, "algebra lesson scheduled after mecânica started")
		}
	}
}

func TestDistributeSequentialEndsWeekOnFirstNonFit(t *testing.T) {
	lessons := []models.CostedLesson{
		costedLesson("a1", "mat", "Matemática", "algebra", "Álgebra", 60),
		costedLesson("a2", "mat", "Matemática", "algebra", "Álgebra", 60),
		costedLesson("a3", "mat", "Matemática", "algebra", "Álgebra", 30),
	}
	weeks := usableWeeks(2, 100)

	allocation := Distribute(lessons, weeks, models.ModalitySequential, nil)

	require.Len(t, allocation.Slots, 3)
	// a2 does not fit next to a1 even though 40 minutes remain, so the
	// first week holds a1 alone and the rest moves to week two.
	assert.Equal(t, 1, allocation.Slots[0].WeekNumber)
	assert.Equal(t, "a1", allocation.Slots[0].Lesson.ID)
	assert.Equal(t, 2, allocation.Slots[1].WeekNumber)
	assert.Equal(t, "a2", allocation.Slots[1].Lesson.ID)
	assert.Equal(t, 2, allocation.Slots[2].WeekNumber)
	assert.Equal(t, "a3", allocation.Slots[2].Lesson.ID)
}

func TestDistributeSequentialHandsOverWithinWeek(t *testing.T) {
	lessons := []models.CostedLesson{
		costedLesson("a1", "mat", "Matemática", "algebra", "Álgebra", 30),
		costedLesson("m1", "fis", "Física", "mecanica", "Mecânica", 30),
	}
	weeks := usableWeeks(1, 120)

	allocation := Distribute(lessons, weeks, models.ModalitySequential, nil)

	require.Len(t, allocation.Slots, 2)
	assert.Equal(t, 1, allocation.Slots[0].WeekNumber)
	assert.Equal(t, 1, allocation.Slots[1].WeekNumber)
	assert.Equal(t, "a1", allocation.Slots[0].Lesson.ID)
	assert.Equal(t, "m1", allocation.Slots[1].Lesson.ID)
}

func TestDistributeSingleFrenteModalitiesAgree(t *testing.T) {
	lessons := frenteLessons("mat", "Matemática", "algebra", "Álgebra", 6, 45)
	weeks := usableWeeks(3, 120)

	parallel := Distribute(lessons, weeks, models.ModalityParallel, nil)
	sequential := Distribute(lessons, weeks, models.ModalitySequential, nil)

	require.Equal(t, len(parallel.Slots), len(sequential.Slots))
	for i := range parallel.Slots {
		assert.Equal(t, parallel.Slots[i].Lesson.ID, sequential.Slots[i].Lesson.ID)
		assert.Equal(t, parallel.Slots[i].WeekNumber, sequential.Slots[i].WeekNumber)
		assert.Equal(t, parallel.Slots[i].OrderInWeek, sequential.Slots[i].OrderInWeek)
	}
	assert.Equal(t, len(parallel.Unscheduled), len(sequential.Unscheduled))
}

func TestDistributeOversizedLessonStaysUnscheduled(t *testing.T) {
	lessons := []models.CostedLesson{
		costedLesson("a1", "mat", "Matemática", "algebra", "Álgebra", 500),
	}
	weeks := usableWeeks(4, 120)

	for _, modality := range []models.Modality{models.ModalityParallel, models.ModalitySequential} {
		allocation := Distribute(lessons, weeks, modality, nil)
		assert.Empty(t, allocation.Slots, "modality %s", modality)
		require.Len(t, allocation.Unscheduled, 1, "modality %s", modality)
		assert.Equal(t, "a1", allocation.Unscheduled[0].ID)
	}
}

func TestDistributeSequentialFrentePreferenceOrder(t *testing.T) {
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 2, 30),
		frenteLessons("fis", "Física", "mecanica", "Mecânica", 2, 30)...,
	)
	weeks := usableWeeks(1, 600)

	allocation := Distribute(lessons, weeks, models.ModalitySequential, []string{"mecanica", "algebra"})

	require.Len(t, allocation.Slots, 4)
	assert.Equal(t, "mecanica", *allocation.Slots[0].Lesson.FrenteID)
	assert.Equal(t, "mecanica", *allocation.Slots[1].Lesson.FrenteID)
	assert.Equal(t, "algebra", *allocation.Slots[2].Lesson.FrenteID)
	assert.Equal(t, "algebra", *allocation.Slots[3].Lesson.FrenteID)
}

func TestDistributeSequentialPreferenceMatchesFrenteNames(t *testing.T) {
	noFrente := models.CostedLesson{
		Lesson: models.Lesson{
			ID:          "r1",
			Name:        "Aula 1",
			SubjectID:   "red",
			SubjectName: "Redação",
		},
		CostMinutes: 30,
	}
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 2, 30),
		noFrente,
	)
	lessons = append(lessons, frenteLessons("fis", "Física", "mecanica", "Mecânica", 2, 30)...)
	weeks := usableWeeks(1, 600)

	// Display names address groups without exposing ids, and the
	// per-subject fallback group answers to its subject name.
	allocation := Distribute(lessons, weeks, models.ModalitySequential, []string{"Mecânica", "Redação", "Álgebra"})

	require.Len(t, allocation.Slots, 5)
	assert.Equal(t, "mecanica", *allocation.Slots[0].Lesson.FrenteID)
	assert.Equal(t, "mecanica", *allocation.Slots[1].Lesson.FrenteID)
	assert.Equal(t, "r1", allocation.Slots[2].Lesson.ID)
	assert.Equal(t, "algebra", *allocation.Slots[3].Lesson.FrenteID)
	assert.Equal(t, "algebra", *allocation.Slots[4].Lesson.FrenteID)
}

func TestDistributeNeverDuplicatesAndKeepsWeekOrderDense(t *testing.T) {
	lessons := append(
		frenteLessons("mat", "Matemática", "algebra", "Álgebra", 5, 40),
		frenteLessons("fis", "Física", "mecanica", "Mecânica", 5, 40)...,
	)
	weeks := usableWeeks(4, 160)

	for _, modality := range []models.Modality{models.ModalityParallel, models.ModalitySequential} {
		allocation := Distribute(lessons, weeks, modality, nil)

		seen := map[string]bool{}
		for _, slot := range allocation.Slots {
			assert.False(t, seen[slot.Lesson.ID], "modality %s scheduled %s twice", modality, slot.Lesson.ID)
			seen[slot.Lesson.ID] = true
		}
		for _, lesson := range allocation.Unscheduled {
			assert.False(t, seen[lesson.ID], "modality %s both scheduled and dropped %s", modality, lesson.ID)
		}

		for week, slots := range slotsByWeek(allocation) {
			for i, slot := range slots {
				assert.Equal(t, i+1, slot.OrderInWeek, "modality %s week %d has a gap", modality, week)
			}
		}
	}
}

func TestDistributeGroupsFrentelessLessonsBySubject(t *testing.T) {
	noFrente := models.CostedLesson{
		Lesson: models.Lesson{
			ID:          "r1",
			Name:        "Aula 1",
			SubjectID:   "red",
			SubjectName: "Redação",
		},
		CostMinutes: 30,
	}
	lessons := append(frenteLessons("mat", "Matemática", "algebra", "Álgebra", 1, 30), noFrente)
	weeks := usableWeeks(1, 600)

	allocation := Distribute(lessons, weeks, models.ModalitySequential, nil)

	require.Len(t, allocation.Slots, 2)
	assert.Equal(t, "subject:red", frenteKey(noFrente.Lesson))
	assert.Equal(t, "Redação", frenteDisplayName(noFrente.Lesson))
}

// --- Fixtures ---

func costedLesson(id, subjectID, subjectName, frenteID, frenteName string, cost float64) models.CostedLesson {
	fID, fName := frenteID, frenteName
	return models.CostedLesson{
		Lesson: models.Lesson{
			ID:          id,
			Name:        "Aula " + id,
			SubjectID:   subjectID,
			SubjectName: subjectName,
			FrenteID:    &fID,
			FrenteName:  &fName,
			Priority:    3,
		},
		CostMinutes: cost,
	}
}

func frenteLessons(subjectID, subjectName, frenteID, frenteName string, count int, cost float64) []models.CostedLesson {
	lessons := make([]models.CostedLesson, 0, count)
	for i := 1; i <= count; i++ {
		lessons = append(lessons, costedLesson(
			frenteID+"-"+string(rune('0'+i)),
			subjectID, subjectName, frenteID, frenteName, cost,
		))
	}
	return lessons
}

func usableWeeks(count int, capacity float64) []models.WeekCapacity {
	weeks := make([]models.WeekCapacity, 0, count)
	for i := 1; i <= count; i++ {
		weeks = append(weeks, models.WeekCapacity{Number: i, CapacityMinutes: capacity})
	}
	return weeks
}

func slotsByWeek(allocation Allocation) map[int][]AllocatedLesson {
	perWeek := make(map[int][]AllocatedLesson)
	for _, slot := range allocation.Slots {
		perWeek[slot.WeekNumber] = append(perWeek[slot.WeekNumber], slot)
	}
	return perWeek
}
