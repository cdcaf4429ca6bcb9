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

// VaccineRepository manages the vaccine catalog.
type VaccineRepository struct {
	db *sqlx.DB
}

// NewVaccineRepository constructs a VaccineRepository.
func NewVaccineRepository(db *sqlx.DB) *VaccineRepository {
	return &VaccineRepository{db: db}
}

// List returns all vaccines ordered by name.
func (r *VaccineRepository) List(ctx context.Context) ([]models.Vaccine, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM vaccines ORDER BY name ASC`
	var vaccines []models.Vaccine
	if err := r.db.SelectContext(ctx, &vaccines, query); err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	return vaccines, nil
}

// FindByID fetches a vaccine by ID.
func (r *VaccineRepository) FindByID(ctx context.Context, id string) (*models.Vaccine, error) {
	const query = `SELECT id, code, name, created_at, updated_at FROM vaccines WHERE id = $1`
	var vaccine models.Vaccine
	if err := r.db.GetContext(ctx, &vaccine, query, id); err != nil {
		return nil, err
	}
	return &vaccine, nil
}

// ExistsByCode checks whether a vaccine code is taken, optionally excluding an ID.
func (r *VaccineRepository) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vaccines WHERE UPPER(code) = UPPER($1)"
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
		return false, fmt.Errorf("check vaccine code: %w", err)
	}
	return true, nil
}

// Create inserts a new vaccine.
func (r *VaccineRepository) Create(ctx context.Context, vaccine *models.Vaccine) error {
	if vaccine.ID == "" {
		vaccine.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vaccine.CreatedAt = now
	vaccine.UpdatedAt = now
	const query = `INSERT INTO vaccines (id, code, name, created_at, updated_at) VALUES (:id, :code, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vaccine); err != nil {
		return translate("create vaccine", err)
	}
	return nil
}

// Update modifies an existing vaccine.
func (r *VaccineRepository) Update(ctx context.Context, vaccine *models.Vaccine) error {
	vaccine.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vaccines SET code = :code, name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, vaccine); err != nil {
		return translate("update vaccine", err)
	}
	return nil
}
