package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type dashboardDeps struct {
	students *fakeStudents
	cache    *memCache
	metrics  *MetricsService
}

func newDashboardServiceForTest(prefs *fakePreferences) (*DashboardService, dashboardDeps) {
	students, records, schedules, _ := schoolFixture()
	metrics := NewMetricsService()
	classifier := NewImmunizationService(students, records, schedules, metrics, zap.NewNop(), fixedClock(fixtureToday))
	if prefs == nil {
		prefs = &fakePreferences{rows: map[string]*models.DashboardPreference{}}
	}
	cacheRepo := newMemCache()
	cache := NewCacheService(cacheRepo, metrics, 0, zap.NewNop(), true)
	svc := NewDashboardService(classifier, NewPreferenceService(prefs, nil, cache, zap.NewNop()), cache, metrics, 0, zap.NewNop())
	return svc, dashboardDeps{students: students, cache: cacheRepo, metrics: metrics}
}

func TestDashboardServiceCoverageCachesResult(t *testing.T) {
	svc, deps := newDashboardServiceForTest(nil)
	ctx := context.Background()
	scope := models.Scope{AllSchools: true}

	first, hit, err := svc.Coverage(ctx, scope, models.DashboardFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "2024-08-10", first.AsOfDate)
	require.NotNil(t, first.ActiveScheduleCode)
	assert.Equal(t, "PNI-2024", *first.ActiveScheduleCode)
	assert.Equal(t, 4, first.TotalStudents)
	require.Len(t, first.Schools, 2)
	assert.Equal(t, models.SchoolCoverage{SchoolID: "school-1", SchoolName: "Escola A", TotalStudents: 2, UpToDate: 1, NoData: 1, CoveragePercent: 50}, first.Schools[0])
	assert.Equal(t, models.SchoolCoverage{SchoolID: "school-2", SchoolName: "Escola B", TotalStudents: 2, Delayed: 1, Incomplete: 1, CoveragePercent: 0}, first.Schools[1])

	second, hit, err := svc.Coverage(ctx, scope, models.DashboardFilter{})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Len(t, deps.students.queries, 1)

	for key := range deps.cache.entries {
		assert.True(t, strings.HasPrefix(key, "dashboard:coverage:all:2024-08-10:"), key)
	}
	assert.Equal(t, uint64(1), deps.metrics.Snapshot().CacheHits)
}

func TestDashboardServiceCacheKeyVariesByScopeAndFilter(t *testing.T) {
	svc, deps := newDashboardServiceForTest(nil)
	ctx := context.Background()

	_, _, err := svc.Coverage(ctx, models.Scope{AllSchools: true}, models.DashboardFilter{})
	require.NoError(t, err)
	_, _, err = svc.Coverage(ctx, models.Scope{AllSchools: true}, models.DashboardFilter{Status: models.StatusDelayed})
	require.NoError(t, err)
	own, hit, err := svc.Coverage(ctx, models.Scope{SchoolID: "school-1"}, models.DashboardFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, own.TotalStudents)
	assert.Len(t, deps.cache.entries, 3)
}

func TestDashboardServiceRejectsOtherSchool(t *testing.T) {
	svc, _ := newDashboardServiceForTest(nil)
	ctx := context.Background()
	scope := models.Scope{SchoolID: "school-1"}
	filter := models.DashboardFilter{SchoolID: "school-2"}

	_, _, err := svc.Coverage(ctx, scope, filter)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	_, _, err = svc.Ranking(ctx, scope, filter)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	_, _, err = svc.AgeDistribution(ctx, scope, "u1", filter)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDashboardServiceSchoolUserWithoutSchoolSeesNothing(t *testing.T) {
	svc, _ := newDashboardServiceForTest(nil)

	resp, _, err := svc.Coverage(context.Background(), models.Scope{}, models.DashboardFilter{})
	require.NoError(t, err)
	assert.Zero(t, resp.TotalStudents)
	assert.Empty(t, resp.Schools)
}

func TestDashboardServiceRanking(t *testing.T) {
	svc, _ := newDashboardServiceForTest(nil)

	resp, _, err := svc.Ranking(context.Background(), models.Scope{AllSchools: true}, models.DashboardFilter{})
	require.NoError(t, err)
	require.Len(t, resp.Schools, 2)
	assert.Equal(t, "school-2", resp.Schools[0].SchoolID)
	assert.Equal(t, 50.0, resp.Schools[0].DelayPercent)
	assert.Equal(t, "school-1", resp.Schools[1].SchoolID)
	assert.Equal(t, 50.0, resp.Schools[1].NoDataPercent)
}

func TestDashboardServiceAgeDistributionUsesPreferences(t *testing.T) {
	prefs := &fakePreferences{rows: map[string]*models.DashboardPreference{
		"u1": {ID: "p1", UserID: "u1", AgeBuckets: []byte(`[{"label":"bebe","minMonths":0,"maxMonths":11},{"label":"crianca","minMonths":12,"maxMonths":999}]`)},
	}}
	svc, deps := newDashboardServiceForTest(prefs)
	ctx := context.Background()

	resp, _, err := svc.AgeDistribution(ctx, models.Scope{AllSchools: true}, "u1", models.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.AgeDistributionRow{
		{AgeBucket: "bebe", PendingCount: 1, OverdueCount: 0},
		{AgeBucket: "crianca", PendingCount: 2, OverdueCount: 2},
	}, resp.Rows)
	require.Len(t, resp.AgeBuckets, 2)

	defaults, _, err := svc.AgeDistribution(ctx, models.Scope{AllSchools: true}, "u2", models.DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAgeBuckets(), defaults.AgeBuckets)
	assert.Len(t, deps.cache.entries, 2)
}
