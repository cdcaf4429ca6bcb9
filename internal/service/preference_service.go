package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type preferenceRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.DashboardPreference, error)
	Upsert(ctx context.Context, pref *models.DashboardPreference) error
}

// PreferenceService manages per-user dashboard preferences.
type PreferenceService struct {
	repo   preferenceRepository
	audit  auditRecorder
	cache  *CacheService
	logger *zap.Logger
}

// NewPreferenceService constructs the preference service.
func NewPreferenceService(repo preferenceRepository, audit auditRecorder, cache *CacheService, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, audit: audit, cache: cache, logger: logger}
}

// AgeBuckets returns the effective buckets of the user. Stored values are normalized
// and written back when normalization changed them.
func (s *PreferenceService) AgeBuckets(ctx context.Context, userID string) ([]models.AgeBucket, error) {
	if userID == "" {
		return models.DefaultAgeBuckets(), nil
	}
	pref, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultAgeBuckets(), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard preferences")
	}

	buckets := NormalizeAgeBuckets(pref.AgeBuckets)
	if !storedBucketsMatch(pref.AgeBuckets, buckets) {
		normalized, err := json.Marshal(buckets)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode age buckets")
		}
		pref.AgeBuckets = normalized
		if err := s.repo.Upsert(ctx, pref); err != nil {
			s.logger.Warn("failed to persist normalized age buckets", zap.String("user_id", userID), zap.Error(err))
		}
	}
	return buckets, nil
}

// SetAgeBuckets validates and stores the buckets submitted by the user. Invalid
// payloads are rejected without touching the stored preference.
func (s *PreferenceService) SetAgeBuckets(ctx context.Context, meta models.AuditMeta, raw []byte) ([]models.AgeBucket, error) {
	buckets, err := ValidateAgeBuckets(raw)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(buckets)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode age buckets")
	}

	pref := &models.DashboardPreference{UserID: meta.UserID, AgeBuckets: payload}
	if existing, err := s.repo.FindByUser(ctx, meta.UserID); err == nil {
		pref.ID = existing.ID
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard preferences")
	}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save dashboard preferences")
	}

	invalidateDashboards(ctx, s.cache)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionPreferencesUpdate, "dashboard_preference", pref.ID, map[string]interface{}{"ageBuckets": buckets})
	return buckets, nil
}

// storedBucketsMatch compares decoded values, since JSONB does not keep key order or spacing.
func storedBucketsMatch(stored []byte, normalized []models.AgeBucket) bool {
	var decoded []models.AgeBucket
	if err := json.Unmarshal(stored, &decoded); err != nil {
		return false
	}
	return BucketsEqual(decoded, normalized)
}
