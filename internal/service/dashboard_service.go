package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vaccination-tracker-api/internal/dto"
	"github.com/noah-isme/vaccination-tracker-api/internal/models"
	appErrors "github.com/noah-isme/vaccination-tracker-api/pkg/errors"
)

type scopeClassifier interface {
	ClassifyScope(ctx context.Context, scope models.Scope, filter models.DashboardFilter) ([]models.ClassifiedStudent, *models.VaccineScheduleVersion, error)
	Today() time.Time
}

type bucketPreferences interface {
	AgeBuckets(ctx context.Context, userID string) ([]models.AgeBucket, error)
}

// DashboardService builds the analytics dashboards and caches their results.
type DashboardService struct {
	classifier  scopeClassifier
	preferences bucketPreferences
	cache       *CacheService
	metrics     *MetricsService
	ttl         time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(classifier scopeClassifier, preferences bucketPreferences, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{classifier: classifier, preferences: preferences, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Coverage returns status tallies per school.
func (s *DashboardService) Coverage(ctx context.Context, scope models.Scope, filter models.DashboardFilter) (*dto.CoverageResponse, bool, error) {
	if err := checkSchoolFilter(scope, filter); err != nil {
		return nil, false, err
	}
	key := s.cacheKey("coverage", scope, filter, nil)
	var cached dto.CoverageResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	students, schedule, err := s.classifier.ClassifyScope(ctx, scope, filter)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.CoverageResponse{
		AsOfDate:           s.asOf(),
		ActiveScheduleCode: scheduleCode(schedule),
		TotalStudents:      len(students),
		Schools:            BuildCoverageBySchool(students),
	}
	s.cache.Set(ctx, key, resp, s.ttl)
	return resp, false, nil
}

// Ranking returns schools ordered by delay and no-data percentages.
func (s *DashboardService) Ranking(ctx context.Context, scope models.Scope, filter models.DashboardFilter) (*dto.RankingResponse, bool, error) {
	if err := checkSchoolFilter(scope, filter); err != nil {
		return nil, false, err
	}
	key := s.cacheKey("ranking", scope, filter, nil)
	var cached dto.RankingResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	students, schedule, err := s.classifier.ClassifyScope(ctx, scope, filter)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.RankingResponse{
		AsOfDate:           s.asOf(),
		ActiveScheduleCode: scheduleCode(schedule),
		Schools:            BuildRanking(students),
	}
	s.cache.Set(ctx, key, resp, s.ttl)
	return resp, false, nil
}

// AgeDistribution counts pending doses per age bucket using the caller's preferences.
func (s *DashboardService) AgeDistribution(ctx context.Context, scope models.Scope, userID string, filter models.DashboardFilter) (*dto.AgeDistributionResponse, bool, error) {
	if err := checkSchoolFilter(scope, filter); err != nil {
		return nil, false, err
	}
	buckets, err := s.preferences.AgeBuckets(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	key := s.cacheKey("age-distribution", scope, filter, buckets)
	var cached dto.AgeDistributionResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	students, schedule, err := s.classifier.ClassifyScope(ctx, scope, filter)
	if err != nil {
		return nil, false, err
	}
	resp := &dto.AgeDistributionResponse{
		AsOfDate:           s.asOf(),
		ActiveScheduleCode: scheduleCode(schedule),
		AgeBuckets:         buckets,
		Rows:               BuildPendingAgeDistribution(students, buckets),
	}
	s.cache.Set(ctx, key, resp, s.ttl)
	return resp, false, nil
}

// SystemMetrics returns the instrumentation snapshot.
func (s *DashboardService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

func (s *DashboardService) asOf() string {
	return s.classifier.Today().Format(models.AsOfLayout)
}

// cacheKey identifies a view by scope, filters, reference date and bucket set.
func (s *DashboardService) cacheKey(view string, scope models.Scope, filter models.DashboardFilter, buckets []models.AgeBucket) string {
	scopeKey := "all"
	if !scope.AllSchools {
		scopeKey = "school-" + scope.SchoolID
	}
	raw, err := json.Marshal(struct {
		Filter  models.DashboardFilter `json:"filter"`
		Buckets []models.AgeBucket     `json:"buckets,omitempty"`
	}{Filter: filter, Buckets: buckets})
	if err != nil {
		s.logger.Warn("failed to encode dashboard cache key", zap.Error(err))
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("dashboard:%s:%s:%s:%s", view, scopeKey, s.asOf(), hex.EncodeToString(sum[:8]))
}

func checkSchoolFilter(scope models.Scope, filter models.DashboardFilter) error {
	if filter.SchoolID != "" && !scope.Allows(filter.SchoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "access denied for another school")
	}
	return nil
}

func scheduleCode(schedule *models.VaccineScheduleVersion) *string {
	if schedule == nil {
		return nil
	}
	code := schedule.Code
	return &code
}
