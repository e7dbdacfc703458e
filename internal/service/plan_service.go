package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cronoplan/cronoplan-api/internal/dto"
	"github.com/cronoplan/cronoplan-api/internal/models"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
)

type lessonCatalogFetcher interface {
	FetchEligible(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, error)
}

type studentStore interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

type studyPlanRepository interface {
	DeleteByStudent(ctx context.Context, exec sqlx.ExtContext, studentID string) error
	Create(ctx context.Context, exec sqlx.ExtContext, plan *models.StudyPlan) error
	BulkInsertItems(ctx context.Context, exec sqlx.ExtContext, items []models.StudyPlanItem) error
	FindByStudent(ctx context.Context, studentID string) (*models.StudyPlan, error)
	ListItems(ctx context.Context, planID string) ([]models.StudyPlanItem, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type planCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type planObserver interface {
	ObservePlanGeneration(modality string, outcome string, duration time.Duration)
}

// PlanServiceConfig tunes orchestration behaviour.
type PlanServiceConfig struct {
	CacheTTL     time.Duration
	MaxVacations int
	MaxPlanLabel int
}

// PlanService orchestrates the study-calendar generation pipeline: input
// validation, capacity planning, cost annotation, the feasibility gate, the
// distribution pass and the atomic replacement of the stored plan.
type PlanService struct {
	catalog   lessonCatalogFetcher
	students  studentStore
	plans     studyPlanRepository
	tx        txProvider
	cache     planCache
	observer  planObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       PlanServiceConfig
}

// NewPlanService wires the generator dependencies.
func NewPlanService(
	catalog lessonCatalogFetcher,
	students studentStore,
	plans studyPlanRepository,
	tx txProvider,
	cache planCache,
	observer planObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg PlanServiceConfig,
) *PlanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}
	if cfg.MaxVacations <= 0 {
		cfg.MaxVacations = 12
	}
	if cfg.MaxPlanLabel <= 0 {
		cfg.MaxPlanLabel = 120
	}
	return &PlanService{
		catalog:   catalog,
		students:  students,
		plans:     plans,
		tx:        tx,
		cache:     cache,
		observer:  observer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate runs the full pipeline and atomically replaces any prior plan
// owned by the student. callerID must match the requested student.
func (s *PlanService) Generate(ctx context.Context, callerID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	started := time.Now()
	resp, err := s.generate(ctx, callerID, req)
	if s.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.observer.ObservePlanGeneration(string(req.Modality), outcome, time.Since(started))
	}
	return resp, err
}

func (s *PlanService) generate(ctx context.Context, callerID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan generation payload")
	}
	if callerID != req.StudentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot generate a plan for another student")
	}
	if !req.Modality.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "modality must be parallel or sequential")
	}
	if len(req.VacationPeriods) > s.cfg.MaxVacations {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("at most %d vacation periods are supported", s.cfg.MaxVacations))
	}
	if len(req.Name) > s.cfg.MaxPlanLabel {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("plan name exceeds %d characters", s.cfg.MaxPlanLabel))
	}

	window, err := parseStudyWindow(req)
	if err != nil {
		return nil, err
	}

	if err := s.ensureStudent(ctx, req.StudentID); err != nil {
		return nil, err
	}

	minPriority := req.MinPriority
	if minPriority < 1 {
		minPriority = 1
	}
	excludeCompleted := true
	if req.ExcludeCompleted != nil {
		excludeCompleted = *req.ExcludeCompleted
	}
	playbackSpeed := req.PlaybackSpeed
	if playbackSpeed <= 0 {
		playbackSpeed = 1.0
	}

	lessons, err := s.catalog.FetchEligible(ctx, models.LessonFilter{
		StudentID:        req.StudentID,
		SubjectIDs:       req.SubjectIDs,
		ModuleIDs:        req.ModuleIDs,
		CourseID:         req.TargetCourseID,
		MinPriority:      minPriority,
		ExcludeCompleted: excludeCompleted,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson catalog")
	}
	if len(lessons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no eligible lessons match the requested filters")
	}

	weeks := BuildWeekCapacities(window)
	costed := AnnotateCosts(lessons, playbackSpeed)

	if err := checkFeasibility(costed, weeks, window.DaysPerWeek, window.HoursPerDay); err != nil {
		return nil, err
	}

	allocation := Distribute(costed, weeks, req.Modality, req.FrentePreferenceOrder)

	plan, items, err := s.buildPlanRecords(req, window, playbackSpeed, allocation)
	if err != nil {
		return nil, err
	}

	if err := s.replacePlan(ctx, req.StudentID, plan, items); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, req.StudentID)

	unscheduled := make([]models.Lesson, 0, len(allocation.Unscheduled))
	for _, lesson := range allocation.Unscheduled {
		unscheduled = append(unscheduled, lesson.Lesson)
	}
	if len(unscheduled) > 0 {
		s.logger.Warn("plan generated with unschedulable lessons",
			zap.String("student_id", req.StudentID),
			zap.Int("unscheduled", len(unscheduled)))
	}

	return &dto.GeneratePlanResponse{
		Plan:        *plan,
		Items:       items,
		Statistics:  buildStatistics(costed, weeks, allocation),
		Unscheduled: unscheduled,
	}, nil
}

// Current returns the stored plan with its ordered items, serving from the
// cache when possible.
func (s *PlanService) Current(ctx context.Context, studentID string) (*dto.PlanDetailResponse, error) {
	key := planCacheKey(studentID)
	if s.cache != nil {
		var cached dto.PlanDetailResponse
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	plan, err := s.plans.FindByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no study plan found for this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
	}
	items, err := s.plans.ListItems(ctx, plan.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan items")
	}

	detail := &dto.PlanDetailResponse{Plan: *plan, Items: items}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, detail, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache study plan", zap.Error(err))
		}
	}
	return detail, nil
}

// Delete removes the student's plan and invalidates the cached copy.
func (s *PlanService) Delete(ctx context.Context, studentID string) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	if err := s.plans.DeleteByStudent(ctx, tx, studentID); err != nil {
		_ = tx.Rollback()
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete study plan")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit plan deletion")
	}
	s.invalidateCache(ctx, studentID)
	return nil
}

func (s *PlanService) ensureStudent(ctx context.Context, studentID string) error {
	_, err := s.students.FindByID(ctx, studentID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.students.Create(ctx, &models.Student{ID: studentID}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student record")
	}
	return nil
}

func (s *PlanService) buildPlanRecords(req dto.GeneratePlanRequest, window models.StudyWindow, playbackSpeed float64, allocation Allocation) (*models.StudyPlan, []models.StudyPlanItem, error) {
	filters := map[string]any{
		"subjectIds":              req.SubjectIDs,
		"moduleIds":               req.ModuleIDs,
		"targetCourseId":          req.TargetCourseID,
		"minPriority":             req.MinPriority,
		"excludeCompletedLessons": req.ExcludeCompleted == nil || *req.ExcludeCompleted,
		"frentePreferenceOrder":   req.FrentePreferenceOrder,
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode plan filters")
	}

	plan := &models.StudyPlan{
		StudentID:     req.StudentID,
		Name:          req.Name,
		Modality:      req.Modality,
		StartDate:     window.StartDate,
		EndDate:       window.EndDate,
		HoursPerDay:   window.HoursPerDay,
		DaysPerWeek:   window.DaysPerWeek,
		PlaybackSpeed: playbackSpeed,
		Filters:       filtersJSON,
	}

	items := make([]models.StudyPlanItem, 0, len(allocation.Slots))
	for _, slot := range allocation.Slots {
		items = append(items, models.StudyPlanItem{
			LessonID:    slot.Lesson.ID,
			LessonName:  slot.Lesson.Name,
			SubjectName: slot.Lesson.SubjectName,
			FrenteName:  slot.Lesson.FrenteName,
			WeekNumber:  slot.WeekNumber,
			OrderInWeek: slot.OrderInWeek,
			CostMinutes: slot.Lesson.CostMinutes,
		})
	}
	return plan, items, nil
}

// replacePlan wraps deletion of the prior plan and insertion of the new one
// in a single transaction so readers never observe a half-written calendar.
func (s *PlanService) replacePlan(ctx context.Context, studentID string, plan *models.StudyPlan, items []models.StudyPlanItem) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.plans.DeleteByStudent(ctx, tx, studentID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace prior study plan")
		return err
	}
	if err = s.plans.Create(ctx, tx, plan); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict.Code {
			return err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create study plan")
		return err
	}
	for i := range items {
		items[i].StudyPlanID = plan.ID
	}
	if err = s.plans.BulkInsertItems(ctx, tx, items); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist study plan items")
		return err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit study plan")
		return err
	}
	return nil
}

func (s *PlanService) invalidateCache(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, planCacheKey(studentID)); err != nil {
		s.logger.Warn("failed to invalidate plan cache", zap.String("student_id", studentID), zap.Error(err))
	}
}

func planCacheKey(studentID string) string {
	return fmt.Sprintf("studyplan:%s", studentID)
}

// checkFeasibility compares total workload against total usable capacity and
// fails with actionable diagnostics when the plan cannot fit. The failure is
// a hard validation outcome, never retried.
func checkFeasibility(costed []models.CostedLesson, weeks []models.WeekCapacity, daysPerWeek int, hoursPerDayCurrent float64) error {
	var totalCost float64
	for _, lesson := range costed {
		totalCost += lesson.CostMinutes
	}

	var totalCapacity float64
	usableWeeks := 0
	for _, week := range weeks {
		if week.IsVacation {
			continue
		}
		totalCapacity += week.CapacityMinutes
		usableWeeks++
	}

	if totalCost <= totalCapacity {
		return nil
	}

	diag := &models.InsufficientTimeError{
		HoursNeeded:        int(math.Ceil(totalCost / 60)),
		HoursAvailable:     int(math.Ceil(totalCapacity / 60)),
		HoursPerDayCurrent: hoursPerDayCurrent,
	}
	if days := usableWeeks * daysPerWeek; days > 0 {
		diag.HoursPerDayNeeded = math.Round(float64(diag.HoursNeeded)/float64(days)*10) / 10
	}

	return appErrors.WithDetails(appErrors.ErrInsufficientTime, diag.Error(), diag)
}

func buildStatistics(costed []models.CostedLesson, weeks []models.WeekCapacity, allocation Allocation) models.PlanStatistics {
	stats := models.PlanStatistics{
		TotalLessons:       len(allocation.Slots),
		UnscheduledLessons: len(allocation.Unscheduled),
		TotalWeeks:         len(weeks),
	}

	for _, lesson := range costed {
		stats.TotalCostMinutes += lesson.CostMinutes
	}
	for _, week := range weeks {
		if week.IsVacation {
			continue
		}
		stats.UsableWeeks++
		stats.TotalCapacityMinutes += week.CapacityMinutes
	}

	frentes := make(map[string]struct{})
	for _, slot := range allocation.Slots {
		frentes[frenteKey(slot.Lesson.Lesson)] = struct{}{}
	}
	stats.DistinctFrentes = len(frentes)

	return stats
}

func parseStudyWindow(req dto.GeneratePlanRequest) (models.StudyWindow, error) {
	start, err := time.Parse(dto.DateLayout, req.StartDate)
	if err != nil {
		return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "startDate must be a valid YYYY-MM-DD date")
	}
	end, err := time.Parse(dto.DateLayout, req.EndDate)
	if err != nil {
		return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be a valid YYYY-MM-DD date")
	}
	if !end.After(start) {
		return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "endDate must be after startDate")
	}

	vacations := make([]models.VacationPeriod, 0, len(req.VacationPeriods))
	for _, period := range req.VacationPeriods {
		vStart, err := time.Parse(dto.DateLayout, period.Start)
		if err != nil {
			return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "vacation start must be a valid YYYY-MM-DD date")
		}
		vEnd, err := time.Parse(dto.DateLayout, period.End)
		if err != nil {
			return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "vacation end must be a valid YYYY-MM-DD date")
		}
		if vEnd.Before(vStart) {
			return models.StudyWindow{}, appErrors.Clone(appErrors.ErrValidation, "vacation end must not precede its start")
		}
		vacations = append(vacations, models.VacationPeriod{Start: vStart, End: vEnd})
	}

	return models.StudyWindow{
		StartDate:   start,
		EndDate:     end,
		Vacations:   vacations,
		HoursPerDay: req.HoursPerDay,
		DaysPerWeek: req.DaysPerWeek,
	}, nil
}
