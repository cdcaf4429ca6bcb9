package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

func newImmunizationServiceForTest() (*ImmunizationService, *fakeStudents) {
	students, records, schedules, _ := schoolFixture()
	return NewImmunizationService(students, records, schedules, NewMetricsService(), zap.NewNop(), fixedClock(fixtureToday)), students
}

func TestImmunizationServiceStudentStatus(t *testing.T) {
	svc, _ := newImmunizationServiceForTest()

	report, err := svc.StudentStatus(context.Background(), models.Scope{AllSchools: true}, "stu-4", "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelayed, report.Status)
	assert.Equal(t, "Davi Rocha", report.StudentName)
	assert.Equal(t, "2024-08-10", report.AsOfDate)
	require.Len(t, report.Pending, 1)
	assert.Equal(t, models.DoseStatusOverdue, report.Pending[0].Status)
}

func TestImmunizationServiceStudentStatusHidesOtherSchools(t *testing.T) {
	svc, _ := newImmunizationServiceForTest()

	_, err := svc.StudentStatus(context.Background(), models.Scope{SchoolID: "school-1"}, "stu-4", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.StudentStatus(context.Background(), models.Scope{AllSchools: true}, "missing", "")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestImmunizationServiceStudentStatusVaccineFilter(t *testing.T) {
	svc, _ := newImmunizationServiceForTest()

	report, err := svc.StudentStatus(context.Background(), models.Scope{AllSchools: true}, "stu-4", "bcg")
	require.NoError(t, err)
	assert.Empty(t, report.Pending)
	assert.Equal(t, models.StatusUpToDate, report.Status)
}

func TestImmunizationServiceClassifyScope(t *testing.T) {
	svc, _ := newImmunizationServiceForTest()
	ctx := context.Background()

	all, schedule, err := svc.ClassifyScope(ctx, models.Scope{AllSchools: true}, models.DashboardFilter{})
	require.NoError(t, err)
	require.NotNil(t, schedule)
	require.Len(t, all, 4)
	statuses := map[string]models.ImmunizationStatusCode{}
	for _, cs := range all {
		statuses[cs.Student.ID] = cs.Status.Status
	}
	assert.Equal(t, map[string]models.ImmunizationStatusCode{
		"stu-1": models.StatusUpToDate,
		"stu-2": models.StatusNoData,
		"stu-3": models.StatusIncomplete,
		"stu-4": models.StatusDelayed,
	}, statuses)

	own, _, err := svc.ClassifyScope(ctx, models.Scope{SchoolID: "school-2"}, models.DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "Escola B", own[0].SchoolName)
}

func TestImmunizationServiceClassifyScopeFilters(t *testing.T) {
	svc, students := newImmunizationServiceForTest()
	ctx := context.Background()
	scope := models.Scope{AllSchools: true}

	delayed, _, err := svc.ClassifyScope(ctx, scope, models.DashboardFilter{Status: models.StatusDelayed})
	require.NoError(t, err)
	require.Len(t, delayed, 1)
	assert.Equal(t, "stu-4", delayed[0].Student.ID)

	maxAge := 12
	young, _, err := svc.ClassifyScope(ctx, scope, models.DashboardFilter{AgeMax: &maxAge})
	require.NoError(t, err)
	require.Len(t, young, 1)
	assert.Equal(t, "stu-3", young[0].Student.ID)

	minAge := 21
	females, _, err := svc.ClassifyScope(ctx, scope, models.DashboardFilter{AgeMin: &minAge, Sex: models.SexFemale, Query: "ana"})
	require.NoError(t, err)
	require.Len(t, females, 1)
	assert.Equal(t, "stu-1", females[0].Student.ID)
	last := students.queries[len(students.queries)-1]
	assert.Equal(t, models.StudentQuery{Search: "ana", Sex: models.SexFemale}, last)
}

func TestImmunizationServiceClassifyScopeOutsideSchoolIsEmpty(t *testing.T) {
	svc, students := newImmunizationServiceForTest()

	rows, _, err := svc.ClassifyScope(context.Background(), models.Scope{SchoolID: "school-1"}, models.DashboardFilter{SchoolID: "school-2"})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, students.queries)
}

func TestImmunizationServiceCountsClassifications(t *testing.T) {
	students, records, schedules, _ := schoolFixture()
	metrics := NewMetricsService()
	svc := NewImmunizationService(students, records, schedules, metrics, nil, fixedClock(fixtureToday))

	_, _, err := svc.ClassifyScope(context.Background(), models.Scope{AllSchools: true}, models.DashboardFilter{})
	require.NoError(t, err)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Classifications[models.StatusDelayed])
	assert.Equal(t, uint64(1), snapshot.Classifications[models.StatusNoData])
	assert.Equal(t, uint64(1), snapshot.DBQueryCount)
}
