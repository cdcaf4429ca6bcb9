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

type scheduleRepository interface {
	List(ctx context.Context) ([]models.VaccineScheduleVersion, error)
	FindByID(ctx context.Context, id string) (*models.VaccineScheduleVersion, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, version *models.VaccineScheduleVersion) error
	Update(ctx context.Context, version *models.VaccineScheduleVersion) error
	Activate(ctx context.Context, id string) error
	ListRules(ctx context.Context, versionID string) ([]models.VaccineDoseRule, error)
	FindRule(ctx context.Context, versionID, ruleID string) (*models.VaccineDoseRule, error)
	RuleExists(ctx context.Context, versionID, vaccineID string, doseNumber int, excludeID string) (bool, error)
	CreateRule(ctx context.Context, rule *models.VaccineDoseRule) error
	UpdateRule(ctx context.Context, rule *models.VaccineDoseRule) error
	DeleteRule(ctx context.Context, versionID, ruleID string) error
}

// ScheduleVersionRequest describes the payload for creating or updating a schedule version.
type ScheduleVersionRequest struct {
	Code     string `json:"code" validate:"required,max=50"`
	Name     string `json:"name" validate:"required,max=150"`
	IsActive bool   `json:"is_active"`
}

// DoseRuleRequest describes the payload for a dose rule.
type DoseRuleRequest struct {
	VaccineID               string `json:"vaccine_id" validate:"required,uuid"`
	DoseNumber              int    `json:"dose_number" validate:"required,min=1"`
	RecommendedMinAgeMonths int    `json:"recommended_min_age_months" validate:"min=0"`
	RecommendedMaxAgeMonths int    `json:"recommended_max_age_months" validate:"min=0"`
}

// ScheduleService manages schedule versions, their rules and activation.
type ScheduleService struct {
	repo      scheduleRepository
	vaccines  vaccineFinder
	audit     auditRecorder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(repo scheduleRepository, vaccines vaccineFinder, audit auditRecorder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{repo: repo, vaccines: vaccines, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns all schedule versions with their rule counts.
func (s *ScheduleService) List(ctx context.Context) ([]models.VaccineScheduleVersion, error) {
	versions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return versions, nil
}

// Get returns a schedule version including its rules.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.VaccineScheduleVersion, error) {
	version, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return version, nil
}

// Create registers a new schedule version, activating it when requested.
func (s *ScheduleService) Create(ctx context.Context, meta models.AuditMeta, req ScheduleVersionRequest) (*models.VaccineScheduleVersion, error) {
	if err := s.validateVersion(ctx, &req, ""); err != nil {
		return nil, err
	}
	version := &models.VaccineScheduleVersion{Code: req.Code, Name: req.Name}
	if err := s.repo.Create(ctx, version); err != nil {
		return nil, s.versionError(err, req.Code, "failed to create schedule")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "schedule_version", version.ID, req)
	if req.IsActive {
		return s.Activate(ctx, meta, version.ID)
	}
	return s.Get(ctx, version.ID)
}

// Update changes a version's code and name. Passing is_active=true activates it;
// an active version is never deactivated through an update.
func (s *ScheduleService) Update(ctx context.Context, meta models.AuditMeta, id string, req ScheduleVersionRequest) (*models.VaccineScheduleVersion, error) {
	version, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateVersion(ctx, &req, id); err != nil {
		return nil, err
	}
	version.Code = req.Code
	version.Name = req.Name
	if err := s.repo.Update(ctx, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, s.versionError(err, req.Code, "failed to update schedule")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "schedule_version", id, req)
	if version.IsActive {
		invalidateDashboards(ctx, s.cache)
	}
	if req.IsActive && !version.IsActive {
		return s.Activate(ctx, meta, id)
	}
	return s.Get(ctx, id)
}

// Activate makes the version the only active one.
func (s *ScheduleService) Activate(ctx context.Context, meta models.AuditMeta, id string) (*models.VaccineScheduleVersion, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate schedule")
	}
	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionScheduleActivate, "schedule_version", id, nil)
	return s.Get(ctx, id)
}

// ListRules returns the rules of a version.
func (s *ScheduleService) ListRules(ctx context.Context, versionID string) ([]models.VaccineDoseRule, error) {
	if _, err := s.Get(ctx, versionID); err != nil {
		return nil, err
	}
	rules, err := s.repo.ListRules(ctx, versionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dose rules")
	}
	return rules, nil
}

// CreateRule adds a dose rule to a version.
func (s *ScheduleService) CreateRule(ctx context.Context, meta models.AuditMeta, versionID string, req DoseRuleRequest) (*models.VaccineDoseRule, error) {
	version, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	rule := &models.VaccineDoseRule{ScheduleVersionID: version.ID}
	if err := s.applyRule(ctx, version, rule, req); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, s.ruleError(err, version, rule, "failed to create dose rule")
	}
	s.ruleChanged(ctx, meta, version, rule)
	return rule, nil
}

// UpdateRule modifies a dose rule of a version.
func (s *ScheduleService) UpdateRule(ctx context.Context, meta models.AuditMeta, versionID, ruleID string, req DoseRuleRequest) (*models.VaccineDoseRule, error) {
	version, err := s.Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	rule, err := s.repo.FindRule(ctx, versionID, ruleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "dose rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dose rule")
	}
	if err := s.applyRule(ctx, version, rule, req); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, s.ruleError(err, version, rule, "failed to update dose rule")
	}
	s.ruleChanged(ctx, meta, version, rule)
	return rule, nil
}

// DeleteRule removes a dose rule from a version.
func (s *ScheduleService) DeleteRule(ctx context.Context, meta models.AuditMeta, versionID, ruleID string) error {
	version, err := s.Get(ctx, versionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteRule(ctx, versionID, ruleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "dose rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete dose rule")
	}
	s.ruleChanged(ctx, meta, version, &models.VaccineDoseRule{ID: ruleID})
	return nil
}

func (s *ScheduleService) validateVersion(ctx context.Context, req *ScheduleVersionRequest, excludeID string) error {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate schedule code")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("schedule %s already exists", req.Code))
	}
	return nil
}

func (s *ScheduleService) applyRule(ctx context.Context, version *models.VaccineScheduleVersion, rule *models.VaccineDoseRule, req DoseRuleRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dose rule payload")
	}
	if req.RecommendedMinAgeMonths > req.RecommendedMaxAgeMonths {
		return appErrors.Clone(appErrors.ErrValidation, "recommended_min_age_months must not exceed recommended_max_age_months")
	}
	vaccine, err := s.vaccines.FindByID(ctx, req.VaccineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "vaccine not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load vaccine")
	}

	exists, err := s.repo.RuleExists(ctx, version.ID, vaccine.ID, req.DoseNumber, rule.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate dose rule")
	}
	if exists {
		return duplicateRule(req.DoseNumber, vaccine.Code, version.Code)
	}

	rule.VaccineID = vaccine.ID
	rule.VaccineCode = vaccine.Code
	rule.VaccineName = vaccine.Name
	rule.DoseNumber = req.DoseNumber
	rule.RecommendedMinAgeMonths = req.RecommendedMinAgeMonths
	rule.RecommendedMaxAgeMonths = req.RecommendedMaxAgeMonths
	return nil
}

func (s *ScheduleService) ruleChanged(ctx context.Context, meta models.AuditMeta, version *models.VaccineScheduleVersion, rule *models.VaccineDoseRule) {
	// rules of an inactive version never reach the dashboards
	if version.IsActive {
		invalidateDashboards(ctx, s.cache)
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCatalogChange, "vaccine_dose_rule", rule.ID, map[string]interface{}{
		"schedule_version_id": version.ID,
		"vaccine_id":          rule.VaccineID,
		"dose_number":         rule.DoseNumber,
	})
}

func (s *ScheduleService) versionError(err error, code, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("schedule %s already exists", code))
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *ScheduleService) ruleError(err error, version *models.VaccineScheduleVersion, rule *models.VaccineDoseRule, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return duplicateRule(rule.DoseNumber, rule.VaccineCode, version.Code)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "dose rule not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func duplicateRule(dose int, vaccineCode, scheduleCode string) error {
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("dose %d of vaccine %s already exists in schedule %s", dose, vaccineCode, scheduleCode))
}
