package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type vaccinationService interface {
	ListByStudent(ctx context.Context, scope models.Scope, studentID string) ([]models.VaccinationRecord, error)
	Create(ctx context.Context, scope models.Scope, meta models.AuditMeta, studentID string, req service.VaccinationRequest) (*models.VaccinationRecord, error)
	Update(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string, req service.VaccinationRequest) (*models.VaccinationRecord, error)
	Delete(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string) error
}

// VaccinationHandler exposes dose record endpoints.
type VaccinationHandler struct {
	vaccinations vaccinationService
}

// NewVaccinationHandler constructs VaccinationHandler.
func NewVaccinationHandler(vaccinations vaccinationService) *VaccinationHandler {
	return &VaccinationHandler{vaccinations: vaccinations}
}

// List godoc
// @Summary List dose records of a student
// @Tags Vaccinations
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/vaccinations [get]
func (h *VaccinationHandler) List(c *gin.Context) {
	_, scope, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	records, err := h.vaccinations.ListByStudent(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Create godoc
// @Summary Record an administered dose
// @Tags Vaccinations
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.VaccinationRequest true "Dose payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/{id}/vaccinations [post]
func (h *VaccinationHandler) Create(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.VaccinationRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.vaccinations.Create(c.Request.Context(), scope, meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Update godoc
// @Summary Update a dose record
// @Tags Vaccinations
// @Accept json
// @Produce json
// @Param id path string true "Record ID"
// @Param payload body service.VaccinationRequest true "Dose payload"
// @Success 200 {object} response.Envelope
// @Router /vaccinations/{id} [put]
func (h *VaccinationHandler) Update(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.VaccinationRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.vaccinations.Update(c.Request.Context(), scope, meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Delete godoc
// @Summary Delete a dose record
// @Tags Vaccinations
// @Param id path string true "Record ID"
// @Success 204 {object} response.Envelope
// @Router /vaccinations/{id} [delete]
func (h *VaccinationHandler) Delete(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	if err := h.vaccinations.Delete(c.Request.Context(), scope, meta, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
