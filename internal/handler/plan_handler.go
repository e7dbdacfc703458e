package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronoplan/cronoplan-api/internal/dto"
	"github.com/cronoplan/cronoplan-api/internal/service"
	appErrors "github.com/cronoplan/cronoplan-api/pkg/errors"
	"github.com/cronoplan/cronoplan-api/pkg/response"
)

type planGenerator interface {
	Generate(ctx context.Context, callerID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error)
	Current(ctx context.Context, studentID string) (*dto.PlanDetailResponse, error)
	Delete(ctx context.Context, studentID string) error
}

type planExporter interface {
	Render(ctx context.Context, studentID, format string) (*service.ExportResult, error)
}

// PlanHandler exposes study-plan endpoints.
type PlanHandler struct {
	service  planGenerator
	exporter planExporter
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(svc *service.PlanService, exporter *service.ExportService) *PlanHandler {
	return &PlanHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate a personalized study calendar
// @Description Validates the time budget, checks feasibility and allocates every eligible lesson to a week slot, replacing any prior plan.
// @Tags Study Plans
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /study-plans/generate [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Current godoc
// @Summary Get the caller's stored study plan
// @Tags Study Plans
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /study-plans/current [get]
func (h *PlanHandler) Current(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.Current(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the stored study plan as CSV or PDF
// @Tags Study Plans
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200
// @Router /study-plans/current/export [get]
func (h *PlanHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.exporter.Render(c.Request.Context(), claims.UserID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Delete godoc
// @Summary Delete the caller's stored study plan
// @Tags Study Plans
// @Success 204
// @Router /study-plans/current [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
