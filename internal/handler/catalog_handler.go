package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type catalogService interface {
	ListSchools(ctx context.Context, scope models.Scope, search string) ([]models.School, error)
	CreateSchool(ctx context.Context, meta models.AuditMeta, req service.SchoolRequest) (*models.School, error)
	UpdateSchool(ctx context.Context, meta models.AuditMeta, id string, req service.SchoolRequest) (*models.School, error)
	ListVaccines(ctx context.Context) ([]models.Vaccine, error)
	CreateVaccine(ctx context.Context, meta models.AuditMeta, req service.VaccineRequest) (*models.Vaccine, error)
	UpdateVaccine(ctx context.Context, meta models.AuditMeta, id string, req service.VaccineRequest) (*models.Vaccine, error)
}

// CatalogHandler exposes school and vaccine reference data.
type CatalogHandler struct {
	catalog catalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListSchools godoc
// @Summary List schools visible to the caller
// @Tags Schools
// @Produce json
// @Param q query string false "Search by name or INEP code"
// @Success 200 {object} response.Envelope
// @Router /schools [get]
func (h *CatalogHandler) ListSchools(c *gin.Context) {
	_, scope, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	schools, err := h.catalog.ListSchools(c.Request.Context(), scope, strings.TrimSpace(c.Query("q")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, nil)
}

// CreateSchool godoc
// @Summary Create school
// @Tags Schools
// @Accept json
// @Produce json
// @Param payload body service.SchoolRequest true "School payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools [post]
func (h *CatalogHandler) CreateSchool(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.SchoolRequest
	if !bindJSON(c, &req) {
		return
	}
	school, err := h.catalog.CreateSchool(c.Request.Context(), meta, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, school)
}

// UpdateSchool godoc
// @Summary Update school
// @Tags Schools
// @Accept json
// @Produce json
// @Param id path string true "School ID"
// @Param payload body service.SchoolRequest true "School payload"
// @Success 200 {object} response.Envelope
// @Router /schools/{id} [put]
func (h *CatalogHandler) UpdateSchool(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.SchoolRequest
	if !bindJSON(c, &req) {
		return
	}
	school, err := h.catalog.UpdateSchool(c.Request.Context(), meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, school, nil)
}

// ListVaccines godoc
// @Summary List vaccines
// @Tags Vaccines
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vaccines [get]
func (h *CatalogHandler) ListVaccines(c *gin.Context) {
	vaccines, err := h.catalog.ListVaccines(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vaccines, nil)
}

// CreateVaccine godoc
// @Summary Create vaccine
// @Tags Vaccines
// @Accept json
// @Produce json
// @Param payload body service.VaccineRequest true "Vaccine payload"
// @Success 201 {object} response.Envelope
// @Router /vaccines [post]
func (h *CatalogHandler) CreateVaccine(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.VaccineRequest
	if !bindJSON(c, &req) {
		return
	}
	vaccine, err := h.catalog.CreateVaccine(c.Request.Context(), meta, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vaccine)
}

// UpdateVaccine godoc
// @Summary Update vaccine
// @Tags Vaccines
// @Accept json
// @Produce json
// @Param id path string true "Vaccine ID"
// @Param payload body service.VaccineRequest true "Vaccine payload"
// @Success 200 {object} response.Envelope
// @Router /vaccines/{id} [put]
func (h *CatalogHandler) UpdateVaccine(c *gin.Context) {
	_, _, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.VaccineRequest
	if !bindJSON(c, &req) {
		return
	}
	vaccine, err := h.catalog.UpdateVaccine(c.Request.Context(), meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vaccine, nil)
}
