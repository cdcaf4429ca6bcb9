package models

import "time"

// ImmunizationStatusCode is the overall compliance classification of a student.
type ImmunizationStatusCode string

const (
	StatusNoData     ImmunizationStatusCode = "SEM_DADOS"
	StatusUpToDate   ImmunizationStatusCode = "EM_DIA"
	StatusIncomplete ImmunizationStatusCode = "INCOMPLETO"
	StatusDelayed    ImmunizationStatusCode = "ATRASADO"
)

// Valid reports whether the status is known.
func (s ImmunizationStatusCode) Valid() bool {
	switch s {
	case StatusNoData, StatusUpToDate, StatusIncomplete, StatusDelayed:
		return true
	}
	return false
}

// DoseStatus classifies a recommended dose that has no matching record.
type DoseStatus string

const (
	DoseStatusPending DoseStatus = "PENDENTE"
	DoseStatusOverdue DoseStatus = "ATRASADA"
	DoseStatusFuture  DoseStatus = "FUTURA"
)

// PendingDose is a dose that is due by age and not recorded.
type PendingDose struct {
	VaccineID               string     `json:"vaccineId"`
	VaccineCode             string     `json:"vaccineCode"`
	VaccineName             string     `json:"vaccineName"`
	DoseNumber              int        `json:"doseNumber"`
	RecommendedMinAgeMonths int        `json:"recommendedMinAgeMonths"`
	RecommendedMaxAgeMonths int        `json:"recommendedMaxAgeMonths"`
	Status                  DoseStatus `json:"status"`
}

// FutureDose is a dose not yet due by age.
type FutureDose struct {
	PendingDose
	MonthsUntilDue int `json:"monthsUntilDue"`
}

// ImmunizationStatus is the classification report for one student.
type ImmunizationStatus struct {
	StudentID          string                 `json:"studentId"`
	StudentName        string                 `json:"studentName"`
	AgeMonths          int                    `json:"ageMonths"`
	Status             ImmunizationStatusCode `json:"status"`
	AsOfDate           string                 `json:"asOfDate"`
	ActiveScheduleCode *string                `json:"activeScheduleCode"`
	Pending            []PendingDose          `json:"pending"`
	Future             []FutureDose           `json:"future"`
}

// OverdueCount returns how many pending entries are overdue.
func (s ImmunizationStatus) OverdueCount() int {
	count := 0
	for _, p := range s.Pending {
		if p.Status == DoseStatusOverdue {
			count++
		}
	}
	return count
}

// ClassifiedStudent pairs a student with its computed status report.
type ClassifiedStudent struct {
	Student    Student
	SchoolName string
	Status     ImmunizationStatus
}

// AsOfLayout formats reference dates in reports.
const AsOfLayout = "2006-01-02"

// DateOnly truncates t to the calendar date in its own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
