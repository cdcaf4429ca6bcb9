package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context) ([]models.VaccineScheduleVersion, error)
	Get(ctx context.Context, id string) (*models.VaccineScheduleVersion, error)
	Create(ctx context.Context, meta models.AuditMeta, req service.ScheduleVersionRequest) (*models.VaccineScheduleVersion, error)
	Update(ctx context.Context, meta models.AuditMeta, id string, req service.ScheduleVersionRequest) (*models.VaccineScheduleVersion, error)
	Activate(ctx context.Context, meta models.AuditMeta, id string) (*models.VaccineScheduleVersion, error)
	ListRules(ctx context.Context, versionID string) ([]models.VaccineDoseRule, error)
	CreateRule(ctx context.Context, meta models.AuditMeta, versionID string, req service.DoseRuleRequest) (*models.VaccineDoseRule, error)
	UpdateRule(ctx context.Context, meta models.AuditMeta, versionID, ruleID string, req service.DoseRuleRequest) (*models.VaccineDoseRule, error)
	DeleteRule(ctx context.Context, meta models.AuditMeta, versionID, ruleID string) error
}

// ScheduleHandler manages schedule versions and their dose rules.
type ScheduleHandler struct {
	schedules scheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules scheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// List godoc
// @Summary List schedule versions
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	versions, err := h.schedules.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// Get godoc
// @Summary Get schedule version
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	version, err := h.schedules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Create godoc
// @Summary Create schedule version
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.ScheduleVersionRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.ScheduleVersionRequest
	if !bindJSON(c, &req) {
		return
	}
	version, err := h.schedules.Create(c.Request.Context(), meta, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, version)
}

// Update godoc
// @Summary Update schedule version
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.ScheduleVersionRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.ScheduleVersionRequest
	if !bindJSON(c, &req) {
		return
	}
	version, err := h.schedules.Update(c.Request.Context(), meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// Activate godoc
// @Summary Activate schedule version
// @Description Deactivates every other version in the same transaction.
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/activate [post]
func (h *ScheduleHandler) Activate(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	version, err := h.schedules.Activate(c.Request.Context(), meta, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, version, nil)
}

// ListRules godoc
// @Summary List dose rules of a schedule version
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/rules [get]
func (h *ScheduleHandler) ListRules(c *gin.Context) {
	rules, err := h.schedules.ListRules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules, nil)
}

// CreateRule godoc
// @Summary Add a dose rule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.DoseRuleRequest true "Rule payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/rules [post]
func (h *ScheduleHandler) CreateRule(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.DoseRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	rule, err := h.schedules.CreateRule(c.Request.Context(), meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rule)
}

// UpdateRule godoc
// @Summary Update a dose rule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param ruleId path string true "Rule ID"
// @Param payload body service.DoseRuleRequest true "Rule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/rules/{ruleId} [put]
func (h *ScheduleHandler) UpdateRule(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.DoseRuleRequest
	if !bindJSON(c, &req) {
		return
	}
	rule, err := h.schedules.UpdateRule(c.Request.Context(), meta, c.Param("id"), c.Param("ruleId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rule, nil)
}

// DeleteRule godoc
// @Summary Delete a dose rule
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Param ruleId path string true "Rule ID"
// @Success 204 {object} response.Envelope
// @Router /schedules/{id}/rules/{ruleId} [delete]
func (h *ScheduleHandler) DeleteRule(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	if err := h.schedules.DeleteRule(c.Request.Context(), meta, c.Param("id"), c.Param("ruleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
