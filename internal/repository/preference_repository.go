package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// PreferenceRepository persists per-user dashboard preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs a PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// FindByUser returns the preference of the user or sql.ErrNoRows.
func (r *PreferenceRepository) FindByUser(ctx context.Context, userID string) (*models.DashboardPreference, error) {
	const query = `SELECT id, user_id, age_buckets, updated_at FROM dashboard_preferences WHERE user_id = $1`
	var pref models.DashboardPreference
	if err := r.db.GetContext(ctx, &pref, query, userID); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Upsert creates or replaces the preference of the user.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.DashboardPreference) error {
	if pref.ID == "" {
		pref.ID = uuid.NewString()
	}
	pref.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO dashboard_preferences (id, user_id, age_buckets, updated_at)
VALUES (:id, :user_id, :age_buckets, :updated_at)
ON CONFLICT (user_id)
DO UPDATE SET age_buckets = EXCLUDED.age_buckets, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, pref); err != nil {
		return fmt.Errorf("upsert dashboard preference: %w", err)
	}
	return nil
}
