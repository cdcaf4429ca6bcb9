package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type fakePreferences struct {
	rows    map[string]*models.DashboardPreference
	upserts int
}

func (f *fakePreferences) FindByUser(ctx context.Context, userID string) (*models.DashboardPreference, error) {
	pref, ok := f.rows[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	found := *pref
	return &found, nil
}

func (f *fakePreferences) Upsert(ctx context.Context, pref *models.DashboardPreference) error {
	f.upserts++
	if pref.ID == "" {
		pref.ID = "pref-" + pref.UserID
	}
	stored := *pref
	f.rows[pref.UserID] = &stored
	return nil
}

func TestPreferenceServiceDefaultsWithoutRow(t *testing.T) {
	repo := &fakePreferences{rows: map[string]*models.DashboardPreference{}}
	svc := NewPreferenceService(repo, nil, nil, zap.NewNop())

	buckets, err := svc.AgeBuckets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAgeBuckets(), buckets)
	assert.Zero(t, repo.upserts)
}

func TestPreferenceServiceNormalizesAndWritesBack(t *testing.T) {
	repo := &fakePreferences{rows: map[string]*models.DashboardPreference{
		"u1": {ID: "p1", UserID: "u1", AgeBuckets: []byte(`[{"label":"b","minMonths":12,"maxMonths":23},{"label":" ","minMonths":0,"maxMonths":5},{"label":"a","minMonths":0,"maxMonths":11}]`)},
	}}
	svc := NewPreferenceService(repo, nil, nil, zap.NewNop())

	buckets, err := svc.AgeBuckets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.AgeBucket{
		{Label: "a", MinMonths: 0, MaxMonths: 11},
		{Label: "b", MinMonths: 12, MaxMonths: 23},
	}, buckets)
	assert.Equal(t, 1, repo.upserts)
	assert.JSONEq(t, `[{"label":"a","minMonths":0,"maxMonths":11},{"label":"b","minMonths":12,"maxMonths":23}]`, string(repo.rows["u1"].AgeBuckets))

	_, err = svc.AgeBuckets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.upserts)
}

func TestPreferenceServiceSkipsWriteBackForReorderedKeys(t *testing.T) {
	repo := &fakePreferences{rows: map[string]*models.DashboardPreference{
		"u1": {ID: "p1", UserID: "u1", AgeBuckets: []byte(`[{"label": "a", "maxMonths": 11, "minMonths": 0}, {"label": "b", "maxMonths": 23, "minMonths": 12}]`)},
	}}
	svc := NewPreferenceService(repo, nil, nil, zap.NewNop())

	buckets, err := svc.AgeBuckets(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.AgeBucket{
		{Label: "a", MinMonths: 0, MaxMonths: 11},
		{Label: "b", MinMonths: 12, MaxMonths: 23},
	}, buckets)
	assert.Zero(t, repo.upserts)
}

func TestPreferenceServiceSetRejectsOverlapWithoutPersisting(t *testing.T) {
	repo := &fakePreferences{rows: map[string]*models.DashboardPreference{}}
	svc := NewPreferenceService(repo, nil, nil, zap.NewNop())

	_, err := svc.SetAgeBuckets(context.Background(), models.AuditMeta{UserID: "u1"}, []byte(`[{"label":"a","minMonths":0,"maxMonths":12},{"label":"b","minMonths":12,"maxMonths":24}]`))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, repo.upserts)
}

func TestPreferenceServiceSetPersistsSortedBuckets(t *testing.T) {
	repo := &fakePreferences{rows: map[string]*models.DashboardPreference{
		"u1": {ID: "p1", UserID: "u1", AgeBuckets: []byte(`[]`)},
	}}
	cacheRepo := newMemCache()
	audit := &memAudit{}
	svc := NewPreferenceService(repo, audit, NewCacheService(cacheRepo, nil, 0, nil, true), zap.NewNop())

	buckets, err := svc.SetAgeBuckets(context.Background(), models.AuditMeta{UserID: "u1"}, []byte(`[{"label":"older","minMonths":12,"maxMonths":24},{"label":"baby","minMonths":0,"maxMonths":11}]`))
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, "baby", buckets[0].Label)
	assert.Equal(t, "p1", repo.rows["u1"].ID)
	assert.Equal(t, []string{dashboardCachePattern}, cacheRepo.invalidated)
	assert.Equal(t, []string{models.AuditActionPreferencesUpdate}, audit.actions())
}
