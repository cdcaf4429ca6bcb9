package models

import "time"

// Vaccine is a catalog entry identified by a unique code.
type Vaccine struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VaccineScheduleVersion is a named set of dose rules. At most one version is active.
type VaccineScheduleVersion struct {
	ID         string            `db:"id" json:"id"`
	Code       string            `db:"code" json:"code"`
	Name       string            `db:"name" json:"name"`
	IsActive   bool              `db:"is_active" json:"is_active"`
	RulesCount int               `db:"rules_count" json:"rules_count"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`
	Rules      []VaccineDoseRule `db:"-" json:"rules,omitempty"`
}

// VaccineDoseRule recommends the Nth dose of a vaccine within an age window in months.
type VaccineDoseRule struct {
	ID                      string    `db:"id" json:"id"`
	ScheduleVersionID       string    `db:"schedule_version_id" json:"schedule_version_id"`
	VaccineID               string    `db:"vaccine_id" json:"vaccine_id"`
	VaccineCode             string    `db:"vaccine_code" json:"vaccine_code"`
	VaccineName             string    `db:"vaccine_name" json:"vaccine_name"`
	DoseNumber              int       `db:"dose_number" json:"dose_number"`
	RecommendedMinAgeMonths int       `db:"recommended_min_age_months" json:"recommended_min_age_months"`
	RecommendedMaxAgeMonths int       `db:"recommended_max_age_months" json:"recommended_max_age_months"`
	CreatedAt               time.Time `db:"created_at" json:"created_at"`
}

// RecordSource tells who informed a vaccination record.
type RecordSource string

const (
	SourceInformedBySchool  RecordSource = "INFORMADO_ESCOLA"
	SourceConfirmedByHealth RecordSource = "CONFIRMADO_SAUDE"
)

// Valid reports whether the source is known.
func (s RecordSource) Valid() bool {
	return s == SourceInformedBySchool || s == SourceConfirmedByHealth
}

// VaccinationRecord is an applied dose registered for a student.
type VaccinationRecord struct {
	ID              string       `db:"id" json:"id"`
	StudentID       string       `db:"student_id" json:"student_id"`
	VaccineID       string       `db:"vaccine_id" json:"vaccine_id"`
	VaccineCode     string       `db:"vaccine_code" json:"vaccine_code"`
	VaccineName     string       `db:"vaccine_name" json:"vaccine_name"`
	DoseNumber      int          `db:"dose_number" json:"dose_number"`
	ApplicationDate time.Time    `db:"application_date" json:"application_date"`
	Source          RecordSource `db:"source" json:"source"`
	Notes           string       `db:"notes" json:"notes"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}
