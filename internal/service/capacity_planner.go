package service

import (
	"time"

	"github.com/cronoplan/cronoplan-api/internal/models"
)

// BuildWeekCapacities splits a study window into contiguous 7-day weeks and
// assigns each its usable study minutes. The final week is clipped to the
// window end. A week overlapping any vacation period, even partially, carries
// zero capacity: the whole week is written off rather than pro-rated.
func BuildWeekCapacities(window models.StudyWindow) []models.WeekCapacity {
	weeklyMinutes := window.HoursPerDay * float64(window.DaysPerWeek) * 60

	var weeks []models.WeekCapacity
	number := 1
	for start := window.StartDate; start.Before(window.EndDate) || start.Equal(window.EndDate); start = start.AddDate(0, 0, 7) {
		end := start.AddDate(0, 0, 6)
		if end.After(window.EndDate) {
			end = window.EndDate
		}

		week := models.WeekCapacity{
			Number:    number,
			StartDate: start,
			EndDate:   end,
		}
		if overlapsVacation(start, end, window.Vacations) {
			week.IsVacation = true
		} else {
			week.CapacityMinutes = weeklyMinutes
		}

		weeks = append(weeks, week)
		number++
	}

	return weeks
}

// overlapsVacation reports whether [start, end] intersects any vacation
// period. Boundaries are inclusive on both sides.
func overlapsVacation(start, end time.Time, vacations []models.VacationPeriod) bool {
	for _, vacation := range vacations {
		if !start.After(vacation.End) && !end.Before(vacation.Start) {
			return true
		}
	}
	return false
}
