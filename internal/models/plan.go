package models

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Modality selects the distribution strategy for a study plan.
type Modality string

const (
	// ModalityParallel interleaves frentes proportionally to their cost share.
	ModalityParallel Modality = "parallel"
	// ModalitySequential consumes frentes strictly one at a time.
	ModalitySequential Modality = "sequential"
)

// Valid reports whether the modality is one of the supported strategies.
func (m Modality) Valid() bool {
	return m == ModalityParallel || m == ModalitySequential
}

// VacationPeriod is a closed date interval with zero study capacity.
type VacationPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// StudyWindow captures the student's available time budget.
// Invariants: EndDate after StartDate, HoursPerDay > 0, 1 <= DaysPerWeek <= 7.
type StudyWindow struct {
	StartDate   time.Time
	EndDate     time.Time
	Vacations   []VacationPeriod
	HoursPerDay float64
	DaysPerWeek int
}

// WeekCapacity is one calendar week of the study window. Weeks are contiguous
// 7-day spans, 1-based, with the final week clipped to the window end. A week
// touching any vacation period carries zero capacity.
type WeekCapacity struct {
	Number          int       `json:"number"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	IsVacation      bool      `json:"is_vacation"`
	CapacityMinutes float64   `json:"capacity_minutes"`
}

// StudyPlan is the persisted header of a generated calendar. A student owns
// at most one plan; regeneration fully replaces it.
type StudyPlan struct {
	ID            string         `db:"id" json:"id"`
	StudentID     string         `db:"student_id" json:"student_id"`
	Name          string         `db:"name" json:"name"`
	Modality      Modality       `db:"modality" json:"modality"`
	StartDate     time.Time      `db:"start_date" json:"start_date"`
	EndDate       time.Time      `db:"end_date" json:"end_date"`
	HoursPerDay   float64        `db:"hours_per_day" json:"hours_per_day"`
	DaysPerWeek   int            `db:"days_per_week" json:"days_per_week"`
	PlaybackSpeed float64        `db:"playback_speed" json:"playback_speed"`
	Filters       types.JSONText `db:"filters" json:"filters"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// StudyPlanItem is one allocated lesson slot. OrderInWeek restarts at 1 for
// every week. Lesson naming columns are denormalised so the stored calendar
// renders without re-joining the catalog.
type StudyPlanItem struct {
	ID          string  `db:"id" json:"id"`
	StudyPlanID string  `db:"study_plan_id" json:"study_plan_id"`
	LessonID    string  `db:"lesson_id" json:"lesson_id"`
	LessonName  string  `db:"lesson_name" json:"lesson_name"`
	SubjectName string  `db:"subject_name" json:"subject_name"`
	FrenteName  *string `db:"frente_name" json:"frente_name,omitempty"`
	WeekNumber  int     `db:"week_number" json:"week_number"`
	OrderInWeek int     `db:"order_in_week" json:"order_in_week"`
	CostMinutes float64 `db:"cost_minutes" json:"cost_minutes"`
}

// PlanStatistics summarises a generated plan.
type PlanStatistics struct {
	TotalLessons         int     `json:"total_lessons"`
	UnscheduledLessons   int     `json:"unscheduled_lessons"`
	TotalWeeks           int     `json:"total_weeks"`
	UsableWeeks          int     `json:"usable_weeks"`
	TotalCapacityMinutes float64 `json:"total_capacity_minutes"`
	TotalCostMinutes     float64 `json:"total_cost_minutes"`
	DistinctFrentes      int     `json:"distinct_frentes"`
}

// InsufficientTimeError is returned when the eligible workload does not fit
// the study window. It carries the diagnostics the caller needs to adjust
// either the filters or the time budget.
type InsufficientTimeError struct {
	HoursNeeded        int     `json:"hours_needed"`
	HoursAvailable     int     `json:"hours_available"`
	HoursPerDayNeeded  float64 `json:"hours_per_day_needed"`
	HoursPerDayCurrent float64 `json:"hours_per_day_current"`
}

// Error implements the error interface.
func (e *InsufficientTimeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("workload requires %dh but only %dh are available (%.1fh/day needed, %.1fh/day configured)",
		e.HoursNeeded, e.HoursAvailable, e.HoursPerDayNeeded, e.HoursPerDayCurrent)
}
