package models

// Lesson ("aula") is the atomic content unit of the catalog. The module and
// frente joins are optional in the source data, so the related fields are
// nullable and every consumer must handle their absence explicitly.
type Lesson struct {
	ID               string  `db:"id" json:"id"`
	Name             string  `db:"name" json:"name"`
	LessonNumber     int     `db:"lesson_number" json:"lesson_number"`
	EstimatedMinutes *int    `db:"estimated_minutes" json:"estimated_minutes,omitempty"`
	Priority         int     `db:"priority" json:"priority"`
	ModuleID         *string `db:"module_id" json:"module_id,omitempty"`
	ModuleNumber     *int    `db:"module_number" json:"module_number,omitempty"`
	FrenteID         *string `db:"frente_id" json:"frente_id,omitempty"`
	FrenteName       *string `db:"frente_name" json:"frente_name,omitempty"`
	SubjectID        string  `db:"subject_id" json:"subject_id"`
	SubjectName      string  `db:"subject_name" json:"subject_name"`
}

// LessonFilter narrows the eligible lesson pool for a generation request.
// Priority zero lessons are always excluded regardless of MinPriority.
type LessonFilter struct {
	StudentID        string
	SubjectIDs       []string
	ModuleIDs        []string
	CourseID         *string
	MinPriority      int
	ExcludeCompleted bool
}

// CostedLesson pairs a lesson with its effective study cost in minutes.
type CostedLesson struct {
	Lesson
	CostMinutes float64 `json:"cost_minutes"`
}
