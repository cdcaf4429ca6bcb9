package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentSelect = `SELECT s.id, s.school_id, s.full_name, s.birth_date, s.sex, s.guardian_name, s.guardian_contact, s.class_group, s.created_at, s.updated_at,
        sc.name AS school_name
        FROM students s JOIN schools sc ON sc.id = s.school_id`

// ListForScope returns every student visible to the scope matching the SQL-level filters,
// ordered by name. Status and age filters are applied by callers after classification.
func (r *StudentRepository) ListForScope(ctx context.Context, scope models.Scope, filter models.StudentQuery) ([]models.StudentDetail, error) {
	if scope.Empty() {
		return []models.StudentDetail{}, nil
	}
	conditions := []string{"1=1"}
	args := []interface{}{}

	if !scope.AllSchools {
		args = append(args, scope.SchoolID)
		conditions = append(conditions, fmt.Sprintf("s.school_id = $%d", len(args)))
	}
	if filter.SchoolID != "" {
		args = append(args, filter.SchoolID)
		conditions = append(conditions, fmt.Sprintf("s.school_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("LOWER(s.full_name) LIKE $%d", len(args)))
	}
	if filter.Sex != "" {
		args = append(args, filter.Sex)
		conditions = append(conditions, fmt.Sprintf("s.sex = $%d", len(args)))
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY s.full_name ASC, s.id ASC", studentSelect, strings.Join(conditions, " AND "))
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	query := studentSelect + " WHERE s.id = $1"
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, school_id, full_name, birth_date, sex, guardian_name, guardian_contact, class_group, created_at, updated_at)
        VALUES (:id, :school_id, :full_name, :birth_date, :sex, :guardian_name, :guardian_contact, :class_group, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET school_id = :school_id, full_name = :full_name, birth_date = :birth_date, sex = :sex, guardian_name = :guardian_name, guardian_contact = :guardian_contact, class_group = :class_group, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student together with its vaccination records.
func (r *StudentRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete student: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM vaccination_records WHERE student_id = $1`, id); err != nil {
		return fmt.Errorf("delete student records: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete student: %w", err)
	}
	return nil
}
