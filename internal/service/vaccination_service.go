package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type vaccinationRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.VaccinationRecord, error)
	FindByID(ctx context.Context, id string) (*models.VaccinationRecord, error)
	Exists(ctx context.Context, studentID, vaccineID string, doseNumber int, excludeID string) (bool, error)
	Create(ctx context.Context, record *models.VaccinationRecord) error
	Update(ctx context.Context, record *models.VaccinationRecord) error
	Delete(ctx context.Context, id string) error
}

type vaccineFinder interface {
	FindByID(ctx context.Context, id string) (*models.Vaccine, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

// VaccinationRequest holds the payload for recording a dose.
type VaccinationRequest struct {
	VaccineID       string `json:"vaccine_id" validate:"required,uuid"`
	DoseNumber      int    `json:"dose_number" validate:"required,min=1"`
	ApplicationDate string `json:"application_date" validate:"required,datetime=2006-01-02"`
	Source          string `json:"source" validate:"omitempty,oneof=INFORMADO_ESCOLA CONFIRMADO_SAUDE"`
	Notes           string `json:"notes" validate:"max=2000"`
}

// VaccinationService manages vaccination records with school ownership checks.
type VaccinationService struct {
	repo      vaccinationRepository
	students  studentFinder
	vaccines  vaccineFinder
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       Clock
}

// NewVaccinationService constructs the vaccination service.
func NewVaccinationService(repo vaccinationRepository, students studentFinder, vaccines vaccineFinder, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger, now Clock) *VaccinationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationService{repo: repo, students: students, vaccines: vaccines, audit: audit, cache: cache, validator: validate, logger: logger, now: now}
}

// ListByStudent returns the records of a student visible to the scope.
func (s *VaccinationService) ListByStudent(ctx context.Context, scope models.Scope, studentID string) ([]models.VaccinationRecord, error) {
	if _, err := s.student(ctx, scope, studentID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vaccination records")
	}
	return records, nil
}

// Create records a dose for the student.
func (s *VaccinationService) Create(ctx context.Context, scope models.Scope, meta models.AuditMeta, studentID string, req VaccinationRequest) (*models.VaccinationRecord, error) {
	student, err := s.student(ctx, scope, studentID)
	if err != nil {
		return nil, err
	}
	record := &models.VaccinationRecord{StudentID: student.ID}
	if err := s.apply(ctx, student, record, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, s.persistError(err, record, "failed to create vaccination record")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionVaccinationCreate, "vaccination_record", record.ID, auditDose(record))
	return record, nil
}

// Update modifies a recorded dose.
func (s *VaccinationService) Update(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string, req VaccinationRequest) (*models.VaccinationRecord, error) {
	record, student, err := s.record(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, student, record, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, record); err != nil {
		return nil, s.persistError(err, record, "failed to update vaccination record")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionVaccinationUpdate, "vaccination_record", record.ID, auditDose(record))
	return record, nil
}

// Delete removes a recorded dose.
func (s *VaccinationService) Delete(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string) error {
	record, _, err := s.record(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, record.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete vaccination record")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionVaccinationDelete, "vaccination_record", record.ID, auditDose(record))
	return nil
}

func (s *VaccinationService) student(ctx context.Context, scope models.Scope, studentID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !scope.Allows(student.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

func (s *VaccinationService) record(ctx context.Context, scope models.Scope, id string) (*models.VaccinationRecord, *models.StudentDetail, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "vaccination record not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccination record")
	}
	student, err := s.student(ctx, scope, record.StudentID)
	if err != nil {
		return nil, nil, err
	}
	return record, student, nil
}

func (s *VaccinationService) apply(ctx context.Context, student *models.StudentDetail, record *models.VaccinationRecord, req VaccinationRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vaccination payload")
	}
	vaccine, err := s.vaccines.FindByID(ctx, req.VaccineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "vaccine not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccine")
	}

	applied, err := time.Parse(models.AsOfLayout, req.ApplicationDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "application_date must be YYYY-MM-DD")
	}
	if applied.After(dateInUTC(s.now.today())) {
		return appErrors.Clone(appErrors.ErrValidation, "application_date cannot be in the future")
	}
	if applied.Before(dateInUTC(student.BirthDate)) {
		return appErrors.Clone(appErrors.ErrValidation, "application_date cannot precede the birth date")
	}

	exists, err := s.repo.Exists(ctx, student.ID, vaccine.ID, req.DoseNumber, record.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate vaccination record")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("dose %d of vaccine %s is already recorded for this student", req.DoseNumber, vaccine.Code))
	}

	source := models.RecordSource(req.Source)
	if source == "" {
		source = models.SourceInformedBySchool
	}
	record.VaccineID = vaccine.ID
	record.VaccineCode = vaccine.Code
	record.VaccineName = vaccine.Name
	record.DoseNumber = req.DoseNumber
	record.ApplicationDate = applied
	record.Source = source
	record.Notes = strings.TrimSpace(req.Notes)
	return nil
}

func (s *VaccinationService) persistError(err error, record *models.VaccinationRecord, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("dose %d of vaccine %s is already recorded for this student", record.DoseNumber, record.VaccineCode))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func auditDose(record *models.VaccinationRecord) map[string]interface{} {
	return map[string]interface{}{
		"student_id":  record.StudentID,
		"vaccine_id":  record.VaccineID,
		"dose_number": record.DoseNumber,
	}
}
