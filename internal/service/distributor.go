package service

import (
	"github.com/cronoplan/cronoplan-api/internal/models"
)

// capacityEpsilon absorbs float64 rounding when comparing accumulated costs
// against week capacities and frente quotas.
const capacityEpsilon = 1e-9

// AllocatedLesson binds a lesson to its calendar position.
type AllocatedLesson struct {
	Lesson      models.CostedLesson
	WeekNumber  int
	OrderInWeek int
}

// Allocation is the distributor output: the placed slots in consumption
// order plus every lesson that could not be placed in any remaining week.
type Allocation struct {
	Slots       []AllocatedLesson
	Unscheduled []models.CostedLesson
}

// frenteGroup accumulates one frente's lessons in catalog order. Lessons
// without a frente join fall back to a per-subject group so they still
// participate in the allocation.
type frenteGroup struct {
	key       string
	name      string
	lessons   []models.CostedLesson
	totalCost float64
}

// Distribute assigns every eligible lesson to a (week, position) slot under
// the chosen modality. The lesson list must arrive pre-sorted by subject,
// frente, module number and lesson number; grouping preserves first-seen
// frente order. Vacation weeks never receive slots.
func Distribute(lessons []models.CostedLesson, weeks []models.WeekCapacity, modality models.Modality, preferenceOrder []string) Allocation {
	groups := groupByFrente(lessons)
	if modality == models.ModalitySequential {
		return distributeSequential(groups, weeks, preferenceOrder)
	}
	return distributeParallel(groups, weeks)
}

func groupByFrente(lessons []models.CostedLesson) []*frenteGroup {
	index := make(map[string]*frenteGroup)
	var groups []*frenteGroup
	for _, lesson := range lessons {
		key := frenteKey(lesson.Lesson)
		group, ok := index[key]
		if !ok {
			group = &frenteGroup{key: key, name: frenteDisplayName(lesson.Lesson)}
			index[key] = group
			groups = append(groups, group)
		}
		group.lessons = append(group.lessons, lesson)
		group.totalCost += lesson.CostMinutes
	}
	return groups
}

func frenteKey(lesson models.Lesson) string {
	if lesson.FrenteID != nil && *lesson.FrenteID != "" {
		return *lesson.FrenteID
	}
	return "subject:" + lesson.SubjectID
}

func frenteDisplayName(lesson models.Lesson) string {
	if lesson.FrenteName != nil && *lesson.FrenteName != "" {
		return *lesson.FrenteName
	}
	return lesson.SubjectName
}

// distributeParallel spreads every frente across all usable weeks in
// proportion to its share of the total cost. Each week runs two passes: a
// proportional pass bounded by the per-frente quota, then a fallback pass
// that refills leftover capacity from any frente in grouping order. The
// fallback may overshoot an individual frente's share within a week; the
// weekly capacity bound always holds. Lessons are indivisible, so a lesson
// that would break a bound is deferred, never split.
func distributeParallel(groups []*frenteGroup, weeks []models.WeekCapacity) Allocation {
	var grandTotal float64
	for _, group := range groups {
		grandTotal += group.totalCost
	}

	cursors := make([]int, len(groups))
	var slots []AllocatedLesson

	if grandTotal <= 0 {
		return Allocation{Slots: slots, Unscheduled: remainingLessons(groups, cursors)}
	}

	for _, week := range weeks {
		if week.IsVacation || week.CapacityMinutes <= 0 {
			continue
		}

		weekUsed := 0.0
		order := 0

		for gi, group := range groups {
			quota := week.CapacityMinutes * group.totalCost / grandTotal
			groupUsed := 0.0
			for cursors[gi] < len(group.lessons) {
				next := group.lessons[cursors[gi]]
				if groupUsed+next.CostMinutes > quota+capacityEpsilon {
					break
				}
				if weekUsed+next.CostMinutes > week.CapacityMinutes+capacityEpsilon {
					break
				}
				order++
				slots = append(slots, AllocatedLesson{Lesson: next, WeekNumber: week.Number, OrderInWeek: order})
				groupUsed += next.CostMinutes
				weekUsed += next.CostMinutes
				cursors[gi]++
			}
		}

		for gi, group := range groups {
			for cursors[gi] < len(group.lessons) {
				next := group.lessons[cursors[gi]]
				if weekUsed+next.CostMinutes > week.CapacityMinutes+capacityEpsilon {
					break
				}
				order++
				slots = append(slots, AllocatedLesson{Lesson: next, WeekNumber: week.Number, OrderInWeek: order})
				weekUsed += next.CostMinutes
				cursors[gi]++
			}
		}
	}

	return Allocation{Slots: slots, Unscheduled: remainingLessons(groups, cursors)}
}

// sequentialCursor tracks consumption progress across weeks: the current
// frente and the next lesson inside it. Each week folds over a copy of the
// cursor instead of mutating shared state, so a single week's behaviour can
// be exercised in isolation.
type sequentialCursor struct {
	frenteIndex int
	lessonIndex int
}

// distributeSequential consumes frentes strictly one at a time: no lesson of
// frente N+1 is scheduled before frente N is exhausted. The caller's
// preference list decides the frente order; unmatched frentes keep their
// grouping order after the preferred ones.
func distributeSequential(groups []*frenteGroup, weeks []models.WeekCapacity, preferenceOrder []string) Allocation {
	ordered := orderByPreference(groups, preferenceOrder)

	cursor := sequentialCursor{}
	var slots []AllocatedLesson
	for _, week := range weeks {
		if week.IsVacation || week.CapacityMinutes <= 0 {
			continue
		}
		var placed []AllocatedLesson
		cursor, placed = fillWeekSequential(ordered, cursor, week)
		slots = append(slots, placed...)
	}

	var unscheduled []models.CostedLesson
	for gi := cursor.frenteIndex; gi < len(ordered); gi++ {
		start := 0
		if gi == cursor.frenteIndex {
			start = cursor.lessonIndex
		}
		unscheduled = append(unscheduled, ordered[gi].lessons[start:]...)
	}

	return Allocation{Slots: slots, Unscheduled: unscheduled}
}

// fillWeekSequential pulls lessons from the current frente while they fit
// the remaining weekly capacity. The first lesson that does not fit ends the
// week immediately: no skipping ahead within the frente and no switching
// frentes mid-week, even if capacity is left over. An exhausted frente hands
// over to the next one within the same week.
func fillWeekSequential(groups []*frenteGroup, cursor sequentialCursor, week models.WeekCapacity) (sequentialCursor, []AllocatedLesson) {
	remaining := week.CapacityMinutes
	order := 0
	var placed []AllocatedLesson

	for cursor.frenteIndex < len(groups) {
		group := groups[cursor.frenteIndex]
		if cursor.lessonIndex >= len(group.lessons) {
			cursor = sequentialCursor{frenteIndex: cursor.frenteIndex + 1}
			continue
		}

		next := group.lessons[cursor.lessonIndex]
		if next.CostMinutes > remaining+capacityEpsilon {
			break
		}

		order++
		placed = append(placed, AllocatedLesson{Lesson: next, WeekNumber: week.Number, OrderInWeek: order})
		remaining -= next.CostMinutes
		cursor.lessonIndex++
	}

	return cursor, placed
}

// orderByPreference reorders groups to follow the caller's preference list.
// Entries match a group's frente id or its display name, so frente-less
// groups are addressable by subject name. Unmatched entries are ignored;
// unmatched groups keep their grouping order after the preferred ones.
func orderByPreference(groups []*frenteGroup, preferenceOrder []string) []*frenteGroup {
	if len(preferenceOrder) == 0 {
		return groups
	}

	used := make(map[*frenteGroup]bool, len(groups))
	ordered := make([]*frenteGroup, 0, len(groups))
	for _, want := range preferenceOrder {
		for _, group := range groups {
			if used[group] {
				continue
			}
			if group.key == want || group.name == want {
				ordered = append(ordered, group)
				used[group] = true
				break
			}
		}
	}
	for _, group := range groups {
		if !used[group] {
			ordered = append(ordered, group)
		}
	}
	return ordered
}

func remainingLessons(groups []*frenteGroup, cursors []int) []models.CostedLesson {
	var remaining []models.CostedLesson
	for gi, group := range groups {
		if cursors[gi] < len(group.lessons) {
			remaining = append(remaining, group.lessons[cursors[gi]:]...)
		}
	}
	return remaining
}
