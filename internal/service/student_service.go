package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type schoolFinder interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

type studentClassifier interface {
	ClassifyScope(ctx context.Context, scope models.Scope, filter models.DashboardFilter) ([]models.ClassifiedStudent, *models.VaccineScheduleVersion, error)
}

// StudentRequest holds the payload for creating or updating students.
type StudentRequest struct {
	SchoolID        string `json:"school_id" validate:"omitempty,uuid"`
	FullName        string `json:"full_name" validate:"required,max=255"`
	BirthDate       string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Sex             string `json:"sex" validate:"required,oneof=F M NI"`
	GuardianName    string `json:"guardian_name" validate:"max=255"`
	GuardianContact string `json:"guardian_contact" validate:"max=255"`
	ClassGroup      string `json:"class_group" validate:"max=50"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo       studentRepository
	schools    schoolFinder
	classifier studentClassifier
	audit      auditRecorder
	cache      *CacheService
	validator  *validator.Validate
	logger     *zap.Logger
	now        Clock
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, schools schoolFinder, classifier studentClassifier, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger, now Clock) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, schools: schools, classifier: classifier, audit: audit, cache: cache, validator: validate, logger: logger, now: now}
}

// List returns the classified students visible to the scope, paginated in memory.
func (s *StudentService) List(ctx context.Context, scope models.Scope, filter models.StudentFilter) ([]models.StudentSummary, *models.Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	classified, _, err := s.classifier.ClassifyScope(ctx, scope, filter.Dashboard)
	if err != nil {
		return nil, nil, err
	}

	total := len(classified)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}

	rows := make([]models.StudentSummary, 0, end-start)
	for _, cs := range classified[start:end] {
		rows = append(rows, models.StudentSummary{
			StudentDetail: models.StudentDetail{Student: cs.Student, SchoolName: cs.SchoolName},
			AgeMonths:     cs.Status.AgeMonths,
			CurrentStatus: cs.Status.Status,
		})
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a student visible to the scope.
func (s *StudentService) Get(ctx context.Context, scope models.Scope, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
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

// Create registers a new student. School users always create in their own school.
func (s *StudentService) Create(ctx context.Context, scope models.Scope, meta models.AuditMeta, req StudentRequest) (*models.Student, error) {
	student := &models.Student{}
	if err := s.apply(ctx, scope, student, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionStudentCreate, "student", student.ID, map[string]interface{}{"school_id": student.SchoolID})
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string, req StudentRequest) (*models.Student, error) {
	detail, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	student := detail.Student
	if err := s.apply(ctx, scope, &student, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionStudentUpdate, "student", student.ID, map[string]interface{}{"school_id": student.SchoolID})
	return &student, nil
}

// Delete removes a student and its vaccination history.
func (s *StudentService) Delete(ctx context.Context, scope models.Scope, meta models.AuditMeta, id string) error {
	detail, err := s.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, detail.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionStudentDelete, "student", detail.ID, map[string]interface{}{"school_id": detail.SchoolID})
	return nil
}

func (s *StudentService) apply(ctx context.Context, scope models.Scope, student *models.Student, req StudentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	schoolID := req.SchoolID
	if schoolID == "" {
		// updates keep the current school
		schoolID = student.SchoolID
	}
	if !scope.AllSchools {
		if schoolID != "" && schoolID != scope.SchoolID {
			return appErrors.Clone(appErrors.ErrForbidden, "access denied for another school")
		}
		schoolID = scope.SchoolID
	}
	if schoolID == "" {
		return appErrors.Clone(appErrors.ErrValidation, "school_id is required")
	}
	if _, err := s.schools.FindByID(ctx, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "school not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}

	birth, err := time.Parse(models.AsOfLayout, req.BirthDate)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "birth_date must be YYYY-MM-DD")
	}
	if birth.After(dateInUTC(s.now.today())) {
		return appErrors.Clone(appErrors.ErrValidation, "birth_date cannot be in the future")
	}

	student.SchoolID = schoolID
	student.FullName = strings.TrimSpace(req.FullName)
	student.BirthDate = birth
	student.Sex = models.Sex(req.Sex)
	student.GuardianName = strings.TrimSpace(req.GuardianName)
	student.GuardianContact = strings.TrimSpace(req.GuardianContact)
	student.ClassGroup = strings.TrimSpace(req.ClassGroup)
	return nil
}

// dateInUTC keeps the calendar date of t, so it compares with dates parsed from payloads.
func dateInUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
