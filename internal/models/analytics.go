package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AgeBucket is a labelled age window in months used by the pending distribution.
type AgeBucket struct {
	Label     string `json:"label"`
	MinMonths int    `json:"minMonths"`
	MaxMonths int    `json:"maxMonths"`
}

// DefaultAgeBuckets returns the system bucket set.
func DefaultAgeBuckets() []AgeBucket {
	return []AgeBucket{
		{Label: "0-11", MinMonths: 0, MaxMonths: 11},
		{Label: "12-59", MinMonths: 12, MaxMonths: 59},
		{Label: "60-107", MinMonths: 60, MaxMonths: 107},
		{Label: "108-179", MinMonths: 108, MaxMonths: 179},
		{Label: "180+", MinMonths: 180, MaxMonths: 999},
	}
}

// SchoolCoverage tallies student statuses for one school.
type SchoolCoverage struct {
	SchoolID        string  `json:"schoolId"`
	SchoolName      string  `json:"schoolName"`
	TotalStudents   int     `json:"totalStudents"`
	UpToDate        int     `json:"EM_DIA"`
	Delayed         int     `json:"ATRASADO"`
	Incomplete      int     `json:"INCOMPLETO"`
	NoData          int     `json:"SEM_DADOS"`
	CoveragePercent float64 `json:"coveragePercent"`
}

// SchoolRanking extends coverage with delay and no-data percentages.
type SchoolRanking struct {
	SchoolCoverage
	DelayPercent  float64 `json:"delayPercent"`
	NoDataPercent float64 `json:"noDataPercent"`
}

// AgeDistributionRow counts pending doses of students within one age bucket.
type AgeDistributionRow struct {
	AgeBucket    string `json:"ageBucket"`
	PendingCount int    `json:"pendingCount"`
	OverdueCount int    `json:"overdueCount"`
}

// DashboardFilter holds the query filters shared by dashboards, exports and the student list.
type DashboardFilter struct {
	Query     string
	SchoolID  string
	Status    ImmunizationStatusCode
	AgeMin    *int
	AgeMax    *int
	Sex       Sex
	VaccineID string
}

// VaccineIDs returns the vaccine restriction as a set, or nil when unrestricted.
func (f DashboardFilter) VaccineIDs() []string {
	if f.VaccineID == "" {
		return nil
	}
	return []string{f.VaccineID}
}

// DashboardPreference stores per-user dashboard settings.
type DashboardPreference struct {
	ID         string         `db:"id" json:"id"`
	UserID     string         `db:"user_id" json:"user_id"`
	AgeBuckets types.JSONText `db:"age_buckets" json:"age_buckets"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// SystemMetrics is a snapshot of the instrumentation counters.
type SystemMetrics struct {
	CacheHitRatio            float64                           `json:"cache_hit_ratio"`
	CacheHits                uint64                            `json:"cache_hits"`
	CacheMisses              uint64                            `json:"cache_misses"`
	RequestsTotal            uint64                            `json:"requests_total"`
	AverageRequestDurationMs float64                           `json:"average_request_duration_ms"`
	DBQueryCount             uint64                            `json:"db_query_count"`
	AverageDBQueryDurationMs float64                           `json:"average_db_query_duration_ms"`
	Goroutines               int                               `json:"goroutines"`
	Classifications          map[ImmunizationStatusCode]uint64 `json:"classifications"`
	CacheInvalidations       uint64                            `json:"cache_invalidations"`
	GeneratedAt              time.Time                         `json:"generated_at"`
}
