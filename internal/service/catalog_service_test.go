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

func newCatalogServiceForTest() (*CatalogService, *fakeSchools, *fakeVaccines, *memCache) {
	_, _, _, schools := schoolFixture()
	vaccines := &fakeVaccines{rows: map[string]*models.Vaccine{
		hepBID: {ID: hepBID, Code: "HEPB", Name: "Hepatite B"},
	}}
	cacheRepo := newMemCache()
	cache := NewCacheService(cacheRepo, nil, 0, zap.NewNop(), true)
	return NewCatalogService(schools, vaccines, &memAudit{}, cache, nil, zap.NewNop()), schools, vaccines, cacheRepo
}

func TestCatalogServiceVaccineCodesAreNormalizedAndUnique(t *testing.T) {
	svc, _, vaccines, _ := newCatalogServiceForTest()
	ctx := context.Background()

	created, err := svc.CreateVaccine(ctx, models.AuditMeta{}, VaccineRequest{Code: " bcg ", Name: " BCG "})
	require.NoError(t, err)
	assert.Equal(t, "BCG", created.Code)
	assert.Equal(t, "BCG", created.Name)
	assert.Len(t, vaccines.rows, 2)

	_, err = svc.CreateVaccine(ctx, models.AuditMeta{}, VaccineRequest{Code: "hepb", Name: "Outra"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "vaccine HEPB already exists", appErr.Message)

	renamed, err := svc.UpdateVaccine(ctx, models.AuditMeta{}, hepBID, VaccineRequest{Code: "HEPB", Name: "Hepatite B recombinante"})
	require.NoError(t, err)
	assert.Equal(t, "Hepatite B recombinante", renamed.Name)

	_, err = svc.UpdateVaccine(ctx, models.AuditMeta{}, "missing", VaccineRequest{Code: "X", Name: "Y"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCatalogServiceSchools(t *testing.T) {
	svc, schools, _, cache := newCatalogServiceForTest()
	ctx := context.Background()

	created, err := svc.CreateSchool(ctx, models.AuditMeta{}, SchoolRequest{Name: " Escola C ", INEPCode: "35000001"})
	require.NoError(t, err)
	assert.Equal(t, "Escola C", created.Name)
	require.NotNil(t, created.INEPCode)
	assert.Equal(t, "35000001", *created.INEPCode)
	assert.Len(t, schools.rows, 3)
	assert.Empty(t, cache.invalidated)

	updated, err := svc.UpdateSchool(ctx, models.AuditMeta{}, "school-1", SchoolRequest{Name: "Escola A Renomeada"})
	require.NoError(t, err)
	assert.Nil(t, updated.INEPCode)
	assert.Equal(t, []string{dashboardCachePattern}, cache.invalidated)

	visible, err := svc.ListSchools(ctx, models.Scope{SchoolID: "school-2"}, "")
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "school-2", visible[0].ID)

	_, err = svc.CreateSchool(ctx, models.AuditMeta{}, SchoolRequest{Name: "  "})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
