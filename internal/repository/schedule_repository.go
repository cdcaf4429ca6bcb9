package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// ScheduleRepository manages schedule versions and their dose rules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const versionSelect = `SELECT v.id, v.code, v.name, v.is_active, v.created_at, v.updated_at,
        (SELECT COUNT(*) FROM vaccine_dose_rules r WHERE r.schedule_version_id = v.id) AS rules_count
        FROM vaccine_schedule_versions v`

const ruleSelect = `SELECT r.id, r.schedule_version_id, r.vaccine_id, vc.code AS vaccine_code, vc.name AS vaccine_name,
        r.dose_number, r.recommended_min_age_months, r.recommended_max_age_months, r.created_at
        FROM vaccine_dose_rules r JOIN vaccines vc ON vc.id = r.vaccine_id`

// List returns every schedule version, newest first.
func (r *ScheduleRepository) List(ctx context.Context) ([]models.VaccineScheduleVersion, error) {
	var versions []models.VaccineScheduleVersion
	if err := r.db.SelectContext(ctx, &versions, versionSelect+" ORDER BY v.created_at DESC"); err != nil {
		return nil, fmt.Errorf("list schedule versions: %w", err)
	}
	return versions, nil
}

// FindByID fetches a version with its rules.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.VaccineScheduleVersion, error) {
	var version models.VaccineScheduleVersion
	if err := r.db.GetContext(ctx, &version, versionSelect+" WHERE v.id = $1", id); err != nil {
		return nil, err
	}
	rules, err := r.ListRules(ctx, version.ID)
	if err != nil {
		return nil, err
	}
	version.Rules = rules
	return &version, nil
}

// FindActive returns the active version with its rules ordered by vaccine name and
// dose number, or nil when no version is active.
func (r *ScheduleRepository) FindActive(ctx context.Context) (*models.VaccineScheduleVersion, error) {
	var version models.VaccineScheduleVersion
	err := r.db.GetContext(ctx, &version, versionSelect+" WHERE v.is_active = TRUE ORDER BY v.created_at DESC LIMIT 1")
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find active schedule: %w", err)
	}
	rules, err := r.ListRules(ctx, version.ID)
	if err != nil {
		return nil, err
	}
	version.Rules = rules
	return &version, nil
}

// ExistsByCode checks whether a version code is taken, optionally excluding an ID.
func (r *ScheduleRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vaccine_schedule_versions WHERE code = $1"
	args := []interface{}{code}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check schedule code: %w", err)
	}
	return true, nil
}

// Create inserts a new inactive version. Activation goes through Activate.
func (r *ScheduleRepository) Create(ctx context.Context, version *models.VaccineScheduleVersion) error {
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	version.CreatedAt = now
	version.UpdatedAt = now
	version.IsActive = false
	const query = `INSERT INTO vaccine_schedule_versions (id, code, name, is_active, created_at, updated_at)
        VALUES (:id, :code, :name, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return translate("create schedule version", err)
	}
	return nil
}

// Update modifies code and name of a version. The active flag is left untouched.
func (r *ScheduleRepository) Update(ctx context.Context, version *models.VaccineScheduleVersion) error {
	version.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vaccine_schedule_versions SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, version); err != nil {
		return translate("update schedule version", err)
	}
	return nil
}

// activationLockKey serializes schedule activations across connections.
const activationLockKey int64 = 7310001

// Activate makes the version the only active one. Concurrent activations queue on a
// transaction-scoped advisory lock, so each one sees the previous commit before it
// deactivates the other versions.
func (r *ScheduleRepository) Activate(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, activationLockKey); err != nil {
		return fmt.Errorf("lock schedule activation: %w", err)
	}

	var lockedID string
	if err = tx.GetContext(ctx, &lockedID, `SELECT id FROM vaccine_schedule_versions WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock schedule version: %w", err)
	}

	now := time.Now().UTC()
	if _, err = tx.ExecContext(ctx, `UPDATE vaccine_schedule_versions SET is_active = FALSE, updated_at = $2 WHERE is_active = TRUE AND id <> $1`, id, now); err != nil {
		return fmt.Errorf("deactivate schedule versions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE vaccine_schedule_versions SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("activate schedule version: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit activate schedule: %w", err)
	}
	return nil
}

// ListRules returns the rules of a version ordered by vaccine name and dose number.
func (r *ScheduleRepository) ListRules(ctx context.Context, versionID string) ([]models.VaccineDoseRule, error) {
	query := ruleSelect + " WHERE r.schedule_version_id = $1 ORDER BY vc.name ASC, r.dose_number ASC"
	rules := []models.VaccineDoseRule{}
	if err := r.db.SelectContext(ctx, &rules, query, versionID); err != nil {
		return nil, fmt.Errorf("list dose rules: %w", err)
	}
	return rules, nil
}

// FindRule fetches a rule of a version.
func (r *ScheduleRepository) FindRule(ctx context.Context, versionID, ruleID string) (*models.VaccineDoseRule, error) {
	query := ruleSelect + " WHERE r.schedule_version_id = $1 AND r.id = $2"
	var rule models.VaccineDoseRule
	if err := r.db.GetContext(ctx, &rule, query, versionID, ruleID); err != nil {
		return nil, err
	}
	return &rule, nil
}

// RuleExists checks for a rule with the same vaccine and dose in the version.
func (r *ScheduleRepository) RuleExists(ctx context.Context, versionID, vaccineID string, doseNumber int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vaccine_dose_rules WHERE schedule_version_id = $1 AND vaccine_id = $2 AND dose_number = $3"
	args := []interface{}{versionID, vaccineID, doseNumber}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check dose rule: %w", err)
	}
	return true, nil
}

// CreateRule inserts a new dose rule.
func (r *ScheduleRepository) CreateRule(ctx context.Context, rule *models.VaccineDoseRule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	rule.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO vaccine_dose_rules (id, schedule_version_id, vaccine_id, dose_number, recommended_min_age_months, recommended_max_age_months, created_at)
        VALUES (:id, :schedule_version_id, :vaccine_id, :dose_number, :recommended_min_age_months, :recommended_max_age_months, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return translate("create dose rule", err)
	}
	return nil
}

// UpdateRule modifies an existing dose rule.
func (r *ScheduleRepository) UpdateRule(ctx context.Context, rule *models.VaccineDoseRule) error {
	const query = `UPDATE vaccine_dose_rules SET vaccine_id = :vaccine_id, dose_number = :dose_number,
        recommended_min_age_months = :recommended_min_age_months, recommended_max_age_months = :recommended_max_age_months
        WHERE id = :id AND schedule_version_id = :schedule_version_id`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return translate("update dose rule", err)
	}
	return nil
}

// DeleteRule removes a dose rule from a version.
func (r *ScheduleRepository) DeleteRule(ctx context.Context, versionID, ruleID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vaccine_dose_rules WHERE schedule_version_id = $1 AND id = $2`, versionID, ruleID)
	if err != nil {
		return fmt.Errorf("delete dose rule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
