package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

var recordColumns = []string{"id", "student_id", "vaccine_id", "vaccine_code", "vaccine_name", "dose_number", "application_date", "source", "notes", "created_at", "updated_at"}

func TestVaccinationRepositoryListByStudentsGroups(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVaccinationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE vr.student_id IN (?, ?) ORDER BY vr.student_id, vr.application_date")).
		WithArgs("s1", "s2").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow("r1", "s1", "dtp", "DTP", "DTP", 1, now, "INFORMADO_ESCOLA", "", now, now).
			AddRow("r2", "s1", "dtp", "DTP", "DTP", 2, now, "CONFIRMADO_SAUDE", "", now, now).
			AddRow("r3", "s2", "bcg", "BCG", "BCG", 1, now, "INFORMADO_ESCOLA", "", now, now))

	grouped, err := repo.ListByStudents(context.Background(), []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Len(t, grouped["s1"], 2)
	assert.Len(t, grouped["s2"], 1)
	assert.Equal(t, models.SourceConfirmedByHealth, grouped["s1"][1].Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaccinationRepositoryListByStudentsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVaccinationRepository(db)

	grouped, err := repo.ListByStudents(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaccinationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVaccinationRepository(db)

	mock.ExpectExec("INSERT INTO vaccination_records").
		WithArgs(sqlmock.AnyArg(), "s1", "dtp", 1, sqlmock.AnyArg(), models.SourceInformedBySchool, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.VaccinationRecord{
		StudentID:       "s1",
		VaccineID:       "dtp",
		DoseNumber:      1,
		ApplicationDate: time.Now(),
		Source:          models.SourceInformedBySchool,
	})
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVaccinationRepositoryExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVaccinationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM vaccination_records WHERE student_id = $1 AND vaccine_id = $2 AND dose_number = $3 LIMIT 1")).
		WithArgs("s1", "dtp", 1).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.Exists(context.Background(), "s1", "dtp", 1, "")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
