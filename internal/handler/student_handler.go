package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/vaccination-tracker-api/internal/middleware"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, scope models.Scope, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, error)
	Get(ctx context.Context, scope models.Scope, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, scope models.Scope, meta models.AuditMeta, req service.StudentRequest) (*models.Student, error)
	Update(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string, req service.StudentRequest) (*models.Student, error)
	Delete(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string) error
}

type immunizationService interface {
	Today() time.Time
	StudentStatus(ctx context.Context, scope models.Scope, studentID, vaccineID string) (*models.ImmunizationStatus, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students     studentService
	immunization immunizationService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, immunization immunizationService) *StudentHandler {
	return &StudentHandler{students: students, immunization: immunization}
}

// List godoc
// @Summary List students with their current immunization status
// @Tags Students
// @Produce json
// @Param q query string false "Search by name"
// @Param schoolId query string false "Filter by school"
// @Param status query string false "Overall status (SEM_DADOS, EM_DIA, INCOMPLETO, ATRASADO)"
// @Param ageMin query int false "Minimum age in months"
// @Param ageMax query int false "Maximum age in months"
// @Param sex query string false "Sex (F, M, NI)"
// @Param vaccineId query string false "Restrict classification to one vaccine"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	_, scope, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	dashboardFilter, err := parseDashboardFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.StudentFilter{Dashboard: dashboardFilter}
	if filter.Page, err = positiveInt(c, "page", 1); err != nil {
		response.Error(c, err)
		return
	}
	if filter.PageSize, err = positiveInt(c, "limit", 20); err != nil {
		response.Error(c, err)
		return
	}

	students, pagination, err := h.students.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	_, scope, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Create(c.Request.Context(), scope, meta, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if !bindJSON(c, &req) {
		return
	}
	student, err := h.students.Update(c.Request.Context(), scope, meta, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), scope, meta, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ImmunizationStatus godoc
// @Summary Immunization status of a student
// @Description Classifies the student's records against the active schedule as of today.
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param vaccineId query string false "Restrict classification to one vaccine"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/immunization-status [get]
func (h *StudentHandler) ImmunizationStatus(c *gin.Context) {
	_, scope, _, ok := requestIdentity(c)
	if !ok {
		return
	}
	vaccineID := strings.TrimSpace(c.Query("vaccineId"))
	if vaccineID != "" {
		if _, err := uuid.Parse(vaccineID); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "vaccineId must be a valid UUID"))
			return
		}
	}

	status, err := h.immunization.StudentStatus(c.Request.Context(), scope, c.Param("id"), vaccineID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAsOfDate(c, h.immunization.Today().Format("2006-01-02"))
	response.JSON(c, http.StatusOK, status, nil, middleware.ExtractMeta(c))
}
