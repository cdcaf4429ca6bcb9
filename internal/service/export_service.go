package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
	"github.com/noah-isme/vaccination-tracker-api/pkg/export"
)

// PendingExportFilename is the attachment name of the CSV export.
const PendingExportFilename = "students_pending.csv"

var pendingExportHeaders = []string{
	"student_id",
	"student_name",
	"school",
	"status",
	"age_months",
	"vaccine_code",
	"vaccine_name",
	"dose_number",
	"pending_status",
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the pending-doses exports from the classification snapshot.
type ExportService struct {
	classifier studentClassifier
	audit      auditRecorder
	csv        csvRenderer
	pdf        pdfRenderer
	maxRows    int
	logger     *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(classifier studentClassifier, audit auditRecorder, maxRows int, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{classifier: classifier, audit: audit, csv: csv, pdf: pdf, maxRows: maxRows, logger: logger}
}

// PendingCSV renders one row per pending dose of every student in scope matching the filter.
func (s *ExportService) PendingCSV(ctx context.Context, scope models.Scope, meta models.AuditMeta, filter models.DashboardFilter) ([]byte, error) {
	data, err := s.pendingDataset(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	s.recordExport(ctx, meta, "csv", len(data.Rows))
	return out, nil
}

// PendingPDF renders the same rows as PendingCSV into a PDF table.
func (s *ExportService) PendingPDF(ctx context.Context, scope models.Scope, meta models.AuditMeta, filter models.DashboardFilter) ([]byte, error) {
	data, err := s.pendingDataset(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	out, err := s.pdf.Render(data, "Students with pending doses")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	s.recordExport(ctx, meta, "pdf", len(data.Rows))
	return out, nil
}

func (s *ExportService) pendingDataset(ctx context.Context, scope models.Scope, filter models.DashboardFilter) (export.Dataset, error) {
	classified, _, err := s.classifier.ClassifyScope(ctx, scope, filter)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([][]string, 0)
	for _, cs := range classified {
		for _, pending := range cs.Status.Pending {
			if s.maxRows > 0 && len(rows) >= s.maxRows {
				return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds %d rows, narrow the filters", s.maxRows))
			}
			rows = append(rows, []string{
				cs.Student.ID,
				cs.Student.FullName,
				cs.SchoolName,
				string(cs.Status.Status),
				strconv.Itoa(cs.Status.AgeMonths),
				pending.VaccineCode,
				pending.VaccineName,
				strconv.Itoa(pending.DoseNumber),
				string(pending.Status),
			})
		}
	}
	return export.Dataset{Headers: pendingExportHeaders, Rows: rows}, nil
}

func (s *ExportService) recordExport(ctx context.Context, meta models.AuditMeta, format string, rows int) {
	s.logger.Info("pending doses exported", zap.String("format", format), zap.Int("rows", rows), zap.String("user_id", meta.UserID))
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionPendingExport, "export", "", map[string]interface{}{"format": format, "rows": rows})
}
