package dto

import "github.com/cronoplan/cronoplan-api/internal/models"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// VacationPeriodRequest is a calendar interval excluded from studying.
type VacationPeriodRequest struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// GeneratePlanRequest instructs the generator to build a study calendar.
type GeneratePlanRequest struct {
	StudentID       string                  `json:"studentId" validate:"required"`
	StartDate       string                  `json:"startDate" validate:"required"`
	EndDate         string                  `json:"endDate" validate:"required"`
	VacationPeriods []VacationPeriodRequest `json:"vacationPeriods" validate:"omitempty,dive"`
	HoursPerDay     float64                 `json:"hoursPerDay" validate:"required,gt=0"`
	DaysPerWeek     int                     `json:"daysPerWeek" validate:"required,min=1,max=7"`
	MinPriority     int                     `json:"minPriority" validate:"omitempty,min=1"`
	SubjectIDs      []string                `json:"subjectIds" validate:"required,min=1,dive,required"`
	Modality        models.Modality         `json:"modality" validate:"required"`
	TargetCourseID  *string                 `json:"targetCourseId"`
	Name            string                  `json:"name"`
	// FrentePreferenceOrder lists frente ids or frente display names in the
	// order sequential plans should consume them. Lessons without a frente
	// form a per-subject group addressable by subject name.
	FrentePreferenceOrder []string `json:"frentePreferenceOrder"`
	ModuleIDs             []string `json:"moduleIds"`
	ExcludeCompleted      *bool    `json:"excludeCompletedLessons"`
	PlaybackSpeed         float64  `json:"playbackSpeed" validate:"omitempty,gt=0"`
}

// GeneratePlanResponse returns the persisted calendar and its statistics.
type GeneratePlanResponse struct {
	Plan        models.StudyPlan       `json:"plan"`
	Items       []models.StudyPlanItem `json:"items"`
	Statistics  models.PlanStatistics  `json:"statistics"`
	Unscheduled []models.Lesson        `json:"unscheduled"`
}

// PlanDetailResponse returns a stored plan with its ordered items.
type PlanDetailResponse struct {
	Plan  models.StudyPlan       `json:"plan"`
	Items []models.StudyPlanItem `json:"items"`
}
