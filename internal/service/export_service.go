package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cronoplan/cronoplan-api/internal/models"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
	"github.com/cronoplan/cronoplan-api/pkg/export"
)

type planReader interface {
	FindByStudent(ctx context.Context, studentID string) (*models.StudyPlan, error)
	ListItems(ctx context.Context, planID string) ([]models.StudyPlanItem, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered calendar document.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders a stored study calendar as CSV or PDF.
type ExportService struct {
	plans  planReader
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(plans planReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{plans: plans, csv: csv, pdf: pdf, logger: logger}
}

// Render loads the student's plan and produces the requested format.
func (s *ExportService) Render(ctx context.Context, studentID, format string) (*ExportResult, error) {
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

	title := plan.Name
	if title == "" {
		title = "study calendar"
	}

	switch strings.ToLower(format) {
	case "", "csv":
		data := buildCalendarDataset(items, false)
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "study-plan.csv"}, nil
	case "pdf":
		data := buildCalendarDataset(items, true)
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "study-plan.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// buildCalendarDataset flattens plan items into export rows. Section rows
// mark week boundaries and are only meaningful for the PDF layout.
func buildCalendarDataset(items []models.StudyPlanItem, withSections bool) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Week", "Order", "Subject", "Frente", "Lesson", "Minutes"},
	}

	lastWeek := 0
	for _, item := range items {
		if withSections && item.WeekNumber != lastWeek {
			data.Rows = append(data.Rows, map[string]string{"_section": fmt.Sprintf("Week %d", item.WeekNumber)})
			lastWeek = item.WeekNumber
		}
		frente := ""
		if item.FrenteName != nil {
			frente = *item.FrenteName
		}
		data.Rows = append(data.Rows, map[string]string{
			"Week":    strconv.Itoa(item.WeekNumber),
			"Order":   strconv.Itoa(item.OrderInWeek),
			"Subject": item.SubjectName,
			"Frente":  frente,
			"Lesson":  item.LessonName,
			"Minutes": strconv.FormatFloat(item.CostMinutes, 'f', 0, 64),
		})
	}

	return data
}
