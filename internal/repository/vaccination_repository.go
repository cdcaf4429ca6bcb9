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

// VaccinationRepository manages vaccination records.
type VaccinationRepository struct {
	db *sqlx.DB
}

// NewVaccinationRepository constructs a VaccinationRepository.
func NewVaccinationRepository(db *sqlx.DB) *VaccinationRepository {
	return &VaccinationRepository{db: db}
}

const recordSelect = `SELECT vr.id, vr.student_id, vr.vaccine_id, vc.code AS vaccine_code, vc.name AS vaccine_name,
        vr.dose_number, vr.application_date, vr.source, vr.notes, vr.created_at, vr.updated_at
        FROM vaccination_records vr JOIN vaccines vc ON vc.id = vr.vaccine_id`

// ListByStudent returns the records of a student, most recent application first.
func (r *VaccinationRepository) ListByStudent(ctx context.Context, studentID string) ([]models.VaccinationRecord, error) {
	query := recordSelect + " WHERE vr.student_id = $1 ORDER BY vr.application_date DESC, vc.name ASC"
	records := []models.VaccinationRecord{}
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list vaccination records: %w", err)
	}
	return records, nil
}

// ListByStudents loads the records of many students grouped by student ID.
func (r *VaccinationRepository) ListByStudents(ctx context.Context, studentIDs []string) (map[string][]models.VaccinationRecord, error) {
	grouped := make(map[string][]models.VaccinationRecord, len(studentIDs))
	if len(studentIDs) == 0 {
		return grouped, nil
	}
	query, args, err := sqlx.In(recordSelect+" WHERE vr.student_id IN (?) ORDER BY vr.student_id, vr.application_date", studentIDs)
	if err != nil {
		return nil, fmt.Errorf("build records query: %w", err)
	}
	var records []models.VaccinationRecord
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list records by students: %w", err)
	}
	for _, rec := range records {
		grouped[rec.StudentID] = append(grouped[rec.StudentID], rec)
	}
	return grouped, nil
}

// FindByID fetches a record by ID.
func (r *VaccinationRepository) FindByID(ctx context.Context, id string) (*models.VaccinationRecord, error) {
	var record models.VaccinationRecord
	if err := r.db.GetContext(ctx, &record, recordSelect+" WHERE vr.id = $1", id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Exists checks for a record of the same dose for the student, optionally excluding an ID.
func (r *VaccinationRepository) Exists(ctx context.Context, studentID, vaccineID string, doseNumber int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM vaccination_records WHERE student_id = $1 AND vaccine_id = $2 AND dose_number = $3"
	args := []interface{}{studentID, vaccineID, doseNumber}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check vaccination record: %w", err)
	}
	return true, nil
}

// Create inserts a new record.
func (r *VaccinationRepository) Create(ctx context.Context, record *models.VaccinationRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	const query = `INSERT INTO vaccination_records (id, student_id, vaccine_id, dose_number, application_date, source, notes, created_at, updated_at)
        VALUES (:id, :student_id, :vaccine_id, :dose_number, :application_date, :source, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return translate("create vaccination record", err)
	}
	return nil
}

// Update modifies an existing record.
func (r *VaccinationRepository) Update(ctx context.Context, record *models.VaccinationRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vaccination_records SET vaccine_id = :vaccine_id, dose_number = :dose_number, application_date = :application_date,
        source = :source, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return translate("update vaccination record", err)
	}
	return nil
}

// Delete removes a record.
func (r *VaccinationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM vaccination_records WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete vaccination record: %w", err)
	}
	return nil
}
