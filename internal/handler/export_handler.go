package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/service"
	"github.com/noah-isme/vaccination-tracker-api/pkg/response"
)

type exportService interface {
	PendingCSV(ctx context.Context, scope models.Scope, meta models.AuditMeta, filter models.DashboardFilter) ([]byte, error)
	PendingPDF(ctx context.Context, scope models.Scope, meta models.AuditMeta, filter models.DashboardFilter) ([]byte, error)
}

// ExportHandler streams pending-dose exports.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// PendingCSV godoc
// @Summary Export students with pending doses as CSV
// @Tags Exports
// @Produce text/csv
// @Param q query string false "Search by student name"
// @Param schoolId query string false "School ID"
// @Param status query string false "Overall status"
// @Param ageMin query int false "Minimum age in months"
// @Param ageMax query int false "Maximum age in months"
// @Param sex query string false "Sex (F, M, NI)"
// @Param vaccineId query string false "Vaccine ID"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/students-pending.csv [get]
func (h *ExportHandler) PendingCSV(c *gin.Context) {
	h.serve(c, "text/csv; charset=utf-8", service.PendingExportFilename, h.exports.PendingCSV)
}

// PendingPDF godoc
// @Summary Export students with pending doses as PDF
// @Tags Exports
// @Produce application/pdf
// @Param schoolId query string false "School ID"
// @Param vaccineId query string false "Vaccine ID"
// @Success 200 {file} file
// @Router /exports/students-pending.pdf [get]
func (h *ExportHandler) PendingPDF(c *gin.Context) {
	filename := strings.TrimSuffix(service.PendingExportFilename, ".csv") + ".pdf"
	h.serve(c, "application/pdf", filename, h.exports.PendingPDF)
}

type renderFunc func(ctx context.Context, scope models.Scope, meta models.AuditMeta, filter models.DashboardFilter) ([]byte, error)

func (h *ExportHandler) serve(c *gin.Context, contentType, filename string, render renderFunc) {
	_, scope, meta, ok := requestIdentity(c)
	if !ok {
		return
	}
	filter, err := parseDashboardFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := render(c.Request.Context(), scope, meta, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, contentType, filename, body)
}
