package dto

import (
	"encoding/json"

	"github.com/noah-isme/vaccination-tracker-api/internal/models"
)

// CoverageResponse is the payload of the school coverage dashboard.
type CoverageResponse struct {
	AsOfDate           string                  `json:"asOfDate"`
	ActiveScheduleCode *string                 `json:"activeScheduleCode"`
	TotalStudents      int                     `json:"totalStudents"`
	Schools            []models.SchoolCoverage `json:"schools"`
}

// RankingResponse is the payload of the school ranking dashboard.
type RankingResponse struct {
	AsOfDate           string                 `json:"asOfDate"`
	ActiveScheduleCode *string                `json:"activeScheduleCode"`
	Schools            []models.SchoolRanking `json:"schools"`
}

// AgeDistributionResponse is the payload of the pending-by-age dashboard.
type AgeDistributionResponse struct {
	AsOfDate           string                      `json:"asOfDate"`
	ActiveScheduleCode *string                     `json:"activeScheduleCode"`
	AgeBuckets         []models.AgeBucket          `json:"ageBuckets"`
	Rows               []models.AgeDistributionRow `json:"rows"`
}

// AgeBucketPreferenceRequest carries the raw bucket list submitted by a user.
type AgeBucketPreferenceRequest struct {
	AgeBuckets json.RawMessage `json:"ageBuckets"`
}

// AgeBucketPreferenceResponse returns the effective buckets of a user.
type AgeBucketPreferenceResponse struct {
	AgeBuckets []models.AgeBucket `json:"ageBuckets"`
}
