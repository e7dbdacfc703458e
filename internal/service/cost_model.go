package service

import "github.com/cronoplan/cronoplan-api/internal/models"

const (
	// DefaultLessonMinutes is assumed when the catalog has no estimate.
	DefaultLessonMinutes = 30

	// studyOverheadFactor models exercise and note-taking time as a fixed
	// ratio of the speed-adjusted watch time.
	studyOverheadFactor = 1.5
)

// LessonCost converts a lesson's estimated watch minutes into its effective
// study cost. Watch time shrinks inversely with playback speed; the overhead
// factor applies to the adjusted time, not the original estimate.
func LessonCost(lesson models.Lesson, playbackSpeed float64) float64 {
	if playbackSpeed <= 0 {
		playbackSpeed = 1.0
	}
	minutes := float64(DefaultLessonMinutes)
	if lesson.EstimatedMinutes != nil {
		minutes = float64(*lesson.EstimatedMinutes)
	}
	return minutes / playbackSpeed * studyOverheadFactor
}

// AnnotateCosts maps the lesson pool into cost-annotated lessons, preserving
// the catalog order.
func AnnotateCosts(lessons []models.Lesson, playbackSpeed float64) []models.CostedLesson {
	costed := make([]models.CostedLesson, 0, len(lessons))
	for _, lesson := range lessons {
		costed = append(costed, models.CostedLesson{
			Lesson:      lesson,
			CostMinutes: LessonCost(lesson, playbackSpeed),
		})
	}
	return costed
}
