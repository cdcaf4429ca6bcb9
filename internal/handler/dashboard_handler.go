package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/dto"
	"github.com/noah-isme/vaccination-tracker-api/internal/middleware"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type dashboardService interface {
	Coverage(ctx context.Context, scope models.Scope, filter models.DashboardFilter) (*dto.CoverageResponse, bool, error)
	Ranking(ctx context.Context, scope models.Scope, filter models.DashboardFilter) (*dto.RankingResponse, bool, error)
	AgeDistribution(ctx context.Context, scope models.Scope, userID string, filter models.DashboardFilter) (*dto.AgeDistributionResponse, bool, error)
	SystemMetrics() models.SystemMetrics
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Coverage godoc
// @Summary Immunization coverage by school
// @Tags Dashboard
// @Produce json
// @Param q query string false "Search by student name"
// @Param schoolId query string false "School ID"
// @Param status query string false "Overall status"
// @Param ageMin query int false "Minimum age in months"
// @Param ageMax query int false "Maximum age in months"
// @Param sex query string false "Sex (F, M, NI)"
// @Param vaccineId query string false "Vaccine ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboards/schools/coverage [get]
func (h *DashboardHandler) Coverage(c *gin.Context) {
	_, scope, _, filter, ok := h.prepare(c)
	if !ok {
		return
	}
	resp, cacheHit, err := h.service.Coverage(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.render(c, resp, cacheHit, resp.AsOfDate)
}

// Ranking godoc
// @Summary Schools ranked by delayed students
// @Tags Dashboard
// @Produce json
// @Param q query string false "Search by student name"
// @Param schoolId query string false "School ID"
// @Param status query string false "Overall status"
// @Param ageMin query int false "Minimum age in months"
// @Param ageMax query int false "Maximum age in months"
// @Param sex query string false "Sex (F, M, NI)"
// @Param vaccineId query string false "Vaccine ID"
// @Success 200 {object} response.Envelope
// @Router /dashboards/schools/ranking [get]
func (h *DashboardHandler) Ranking(c *gin.Context) {
	_, scope, _, filter, ok := h.prepare(c)
	if !ok {
		return
	}
	resp, cacheHit, err := h.service.Ranking(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.render(c, resp, cacheHit, resp.AsOfDate)
}

// AgeDistribution godoc
// @Summary Pending and overdue doses by age bucket
// @Description Buckets come from the caller's preference or the system defaults.
// @Tags Dashboard
// @Produce json
// @Param q query string false "Search by student name"
// @Param schoolId query string false "School ID"
// @Param sex query string false "Sex (F, M, NI)"
// @Param vaccineId query string false "Vaccine ID"
// @Success 200 {object} response.Envelope
// @Router /dashboards/age-distribution [get]
func (h *DashboardHandler) AgeDistribution(c *gin.Context) {
	claims, scope, _, filter, ok := h.prepare(c)
	if !ok {
		return
	}
	resp, cacheHit, err := h.service.AgeDistribution(c.Request.Context(), scope, claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.render(c, resp, cacheHit, resp.AsOfDate)
}

// System godoc
// @Summary Instrumentation snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboards/system [get]
func (h *DashboardHandler) System(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}

func (h *DashboardHandler) prepare(c *gin.Context) (*models.JWTClaims, models.Scope, models.AuditMeta, models.DashboardFilter, bool) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return nil, models.Scope{}, models.AuditMeta{}, models.DashboardFilter{}, false
	}
	claims, scope, meta, ok := requestIdentity(c)
	if !ok {
		return nil, scope, meta, models.DashboardFilter{}, false
	}
	filter, err := parseDashboardFilter(c)
	if err != nil {
		response.Error(c, err)
		return nil, scope, meta, filter, false
	}
	return claims, scope, meta, filter, true
}

func (h *DashboardHandler) render(c *gin.Context, payload interface{}, cacheHit bool, asOf string) {
	middleware.SetCacheHit(c, cacheHit)
	middleware.SetAsOfDate(c, asOf)
	response.JSON(c, http.StatusOK, payload, nil, middleware.ExtractMeta(c))
}
