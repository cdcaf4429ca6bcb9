package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	"github.com/noah-isme/vaccination-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type schoolRepository interface {
	List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
}

type vaccineRepository interface {
	List(ctx context.Context) ([]models.Vaccine, error)
	FindByID(ctx context.Context, id string) (*models.Vaccine, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, vaccine *models.Vaccine) error
	Update(ctx context.Context, vaccine *models.Vaccine) error
}

// SchoolRequest holds the payload for creating or updating a school.
type SchoolRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	INEPCode     string `json:"inep_code" validate:"omitempty,max=20"`
	Address      string `json:"address" validate:"max=500"`
	TerritoryRef string `json:"territory_ref" validate:"max=100"`
}

// VaccineRequest holds the payload for creating or updating a vaccine.
type VaccineRequest struct {
	Code string `json:"code" validate:"required,max=30"`
	Name string `json:"name" validate:"required,max=150"`
}

// CatalogService manages the school and vaccine catalogs.
type CatalogService struct {
	schools   schoolRepository
	vaccines  vaccineRepository
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog service.
func NewCatalogService(schools schoolRepository, vaccines vaccineRepository, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{schools: schools, vaccines: vaccines, audit: audit, cache: cache, validator: validate, logger: logger}
}

// ListSchools returns the schools visible to the scope.
func (s *CatalogService) ListSchools(ctx context.Context, scope models.Scope, search string) ([]models.School, error) {
	schools, err := s.schools.List(ctx, models.SchoolFilter{Search: strings.TrimSpace(search), Scope: scope})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	return schools, nil
}

// CreateSchool registers a school.
func (s *CatalogService) CreateSchool(ctx context.Context, meta models.AuditMeta, req SchoolRequest) (*models.School, error) {
	school := &models.School{}
	if err := s.applySchool(school, req); err != nil {
		return nil, err
	}
	if err := s.schools.Create(ctx, school); err != nil {
		return nil, s.schoolError(err, "failed to create school")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "school", school.ID, req)
	return school, nil
}

// UpdateSchool modifies a school. Names appear in dashboards, so cached views are dropped.
func (s *CatalogService) UpdateSchool(ctx context.Context, meta models.AuditMeta, id string, req SchoolRequest) (*models.School, error) {
	school, err := s.schools.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load school")
	}
	if err := s.applySchool(school, req); err != nil {
		return nil, err
	}
	if err := s.schools.Update(ctx, school); err != nil {
		return nil, s.schoolError(err, "failed to update school")
	}
	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "school", school.ID, req)
	return school, nil
}

// ListVaccines returns the vaccine catalog.
func (s *CatalogService) ListVaccines(ctx context.Context) ([]models.Vaccine, error) {
	vaccines, err := s.vaccines.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list vaccines")
	}
	return vaccines, nil
}

// CreateVaccine registers a vaccine with a unique code.
func (s *CatalogService) CreateVaccine(ctx context.Context, meta models.AuditMeta, req VaccineRequest) (*models.Vaccine, error) {
	vaccine := &models.Vaccine{}
	if err := s.applyVaccine(ctx, vaccine, req); err != nil {
		return nil, err
	}
	if err := s.vaccines.Create(ctx, vaccine); err != nil {
		return nil, s.vaccineError(err, vaccine.Code, "failed to create vaccine")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "vaccine", vaccine.ID, req)
	return vaccine, nil
}

// UpdateVaccine modifies a vaccine's code and name.
func (s *CatalogService) UpdateVaccine(ctx context.Context, meta models.AuditMeta, id string, req VaccineRequest) (*models.Vaccine, error) {
	vaccine, err := s.vaccines.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vaccine not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccine")
	}
	if err := s.applyVaccine(ctx, vaccine, req); err != nil {
		return nil, err
	}
	if err := s.vaccines.Update(ctx, vaccine); err != nil {
		return nil, s.vaccineError(err, vaccine.Code, "failed to update vaccine")
	}
	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "vaccine", vaccine.ID, req)
	return vaccine, nil
}

func (s *CatalogService) applySchool(school *models.School, req SchoolRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.INEPCode = strings.TrimSpace(req.INEPCode)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid school payload")
	}
	school.Name = req.Name
	school.INEPCode = nil
	if req.INEPCode != "" {
		code := req.INEPCode
		school.INEPCode = &code
	}
	school.Address = strings.TrimSpace(req.Address)
	school.TerritoryRef = strings.TrimSpace(req.TerritoryRef)
	return nil
}

func (s *CatalogService) applyVaccine(ctx context.Context, vaccine *models.Vaccine, req VaccineRequest) error {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vaccine payload")
	}
	exists, err := s.vaccines.ExistsByCode(ctx, req.Code, vaccine.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate vaccine code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("vaccine %s already exists", req.Code))
	}
	vaccine.Code = req.Code
	vaccine.Name = req.Name
	return nil
}

func (s *CatalogService) schoolError(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, "a school with this INEP code already exists")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *CatalogService) vaccineError(err error, code, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("vaccine %s already exists", code))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
