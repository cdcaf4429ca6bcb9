package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

func classified(schoolID string, status models.ImmunizationStatusCode) models.ClassifiedStudent {
	return models.ClassifiedStudent{
		Student:    models.Student{SchoolID: schoolID},
		SchoolName: "School " + schoolID,
		Status:     models.ImmunizationStatus{Status: status},
	}
}

func repeat(n int, schoolID string, status models.ImmunizationStatusCode) []models.ClassifiedStudent {
	out := make([]models.ClassifiedStudent, n)
	for i := range out {
		out[i] = classified(schoolID, status)
	}
	return out
}

func TestBuildCoverageBySchool(t *testing.T) {
	var students []models.ClassifiedStudent
	students = append(students, classified("b", models.StatusUpToDate))
	students = append(students, classified("a", models.StatusDelayed))
	students = append(students, classified("b", models.StatusIncomplete))
	students = append(students, classified("b", models.StatusNoData))

	rows := BuildCoverageBySchool(students)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].SchoolID)
	assert.Equal(t, "School b", rows[0].SchoolName)
	assert.Equal(t, 3, rows[0].TotalStudents)
	assert.Equal(t, 33.33, rows[0].CoveragePercent)
	assert.Equal(t, 0.0, rows[1].CoveragePercent)

	for _, row := range rows {
		assert.Equal(t, row.TotalStudents, row.UpToDate+row.Delayed+row.Incomplete+row.NoData)
	}
}

func TestBuildCoverageRoundsHalfUp(t *testing.T) {
	students := append(repeat(2, "s", models.StatusUpToDate), repeat(1, "s", models.StatusDelayed)...)
	rows := BuildCoverageBySchool(students)
	assert.Equal(t, 66.67, rows[0].CoveragePercent)

	students = append(repeat(1, "t", models.StatusUpToDate), repeat(7, "t", models.StatusNoData)...)
	rows = BuildCoverageBySchool(students)
	assert.Equal(t, 12.5, rows[0].CoveragePercent)
}

func TestBuildCoverageEmpty(t *testing.T) {
	assert.Empty(t, BuildCoverageBySchool(nil))
	assert.Equal(t, 0.0, percent(0, 0))
}

func TestBuildRankingOrder(t *testing.T) {
	var students []models.ClassifiedStudent
	// school-1: delay 10%, no data 5% over 20 students
	students = append(students, repeat(2, "school-1", models.StatusDelayed)...)
	students = append(students, repeat(1, "school-1", models.StatusNoData)...)
	students = append(students, repeat(17, "school-1", models.StatusUpToDate)...)
	// school-2: delay 30%, no data 1% over 100 students
	students = append(students, repeat(30, "school-2", models.StatusDelayed)...)
	students = append(students, repeat(1, "school-2", models.StatusNoData)...)
	students = append(students, repeat(69, "school-2", models.StatusUpToDate)...)
	// school-3: delay 30%, no data 9% over 100 students
	students = append(students, repeat(30, "school-3", models.StatusDelayed)...)
	students = append(students, repeat(9, "school-3", models.StatusNoData)...)
	students = append(students, repeat(61, "school-3", models.StatusUpToDate)...)

	ranking := BuildRanking(students)
	require.Len(t, ranking, 3)
	assert.Equal(t, "school-3", ranking[0].SchoolID)
	assert.Equal(t, "school-2", ranking[1].SchoolID)
	assert.Equal(t, "school-1", ranking[2].SchoolID)
	assert.Equal(t, 30.0, ranking[0].DelayPercent)
	assert.Equal(t, 9.0, ranking[0].NoDataPercent)
	assert.Equal(t, 10.0, ranking[2].DelayPercent)
	assert.Equal(t, 5.0, ranking[2].NoDataPercent)
}

func TestBuildRankingIsStableOnTies(t *testing.T) {
	students := []models.ClassifiedStudent{
		classified("x", models.StatusUpToDate),
		classified("y", models.StatusUpToDate),
	}
	ranking := BuildRanking(students)
	assert.Equal(t, "x", ranking[0].SchoolID)
	assert.Equal(t, "y", ranking[1].SchoolID)
}

func TestBuildPendingAgeDistributionUsesStudentBucket(t *testing.T) {
	student := models.ClassifiedStudent{Status: models.ImmunizationStatus{
		AgeMonths: 21,
		Pending: []models.PendingDose{
			{VaccineCode: "BCG", RecommendedMinAgeMonths: 0, RecommendedMaxAgeMonths: 0, Status: models.DoseStatusOverdue},
			{VaccineCode: "MMR", RecommendedMinAgeMonths: 12, RecommendedMaxAgeMonths: 24, Status: models.DoseStatusPending},
		},
	}}
	teen := models.ClassifiedStudent{Status: models.ImmunizationStatus{
		AgeMonths: 5000,
		Pending:   []models.PendingDose{{Status: models.DoseStatusOverdue}},
	}}

	rows := BuildPendingAgeDistribution([]models.ClassifiedStudent{student, teen}, models.DefaultAgeBuckets())
	require.Len(t, rows, 5)
	assert.Equal(t, models.AgeDistributionRow{AgeBucket: "0-11"}, rows[0])
	assert.Equal(t, models.AgeDistributionRow{AgeBucket: "12-59", PendingCount: 2, OverdueCount: 1}, rows[1])
	assert.Equal(t, models.AgeDistributionRow{AgeBucket: "180+", PendingCount: 1, OverdueCount: 1}, rows[4])
}

func TestBuildPendingAgeDistributionKeepsRepeatedLabelsApart(t *testing.T) {
	buckets := []models.AgeBucket{
		{Label: "a", MinMonths: 0, MaxMonths: 5},
		{Label: "a", MinMonths: 6, MaxMonths: 10},
	}
	student := models.ClassifiedStudent{Status: models.ImmunizationStatus{
		AgeMonths: 8,
		Pending:   []models.PendingDose{{Status: models.DoseStatusPending}},
	}}

	rows := BuildPendingAgeDistribution([]models.ClassifiedStudent{student}, buckets)
	require.Len(t, rows, 2)
	assert.Equal(t, models.AgeDistributionRow{AgeBucket: "a"}, rows[0])
	assert.Equal(t, models.AgeDistributionRow{AgeBucket: "a", PendingCount: 1}, rows[1])
}
