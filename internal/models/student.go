package models

import "time"

// Sex captures the registered sex of a student.
type Sex string

const (
	SexFemale  Sex = "F"
	SexMale    Sex = "M"
	SexUnknown Sex = "NI"
)

// Valid reports whether the value is a known sex code.
func (s Sex) Valid() bool {
	switch s {
	case SexFemale, SexMale, SexUnknown:
		return true
	}
	return false
}

// Student represents a student enrolled in a school.
type Student struct {
	ID              string    `db:"id" json:"id"`
	SchoolID        string    `db:"school_id" json:"school_id"`
	FullName        string    `db:"full_name" json:"full_name"`
	BirthDate       time.Time `db:"birth_date" json:"birth_date"`
	Sex             Sex       `db:"sex" json:"sex"`
	GuardianName    string    `db:"guardian_name" json:"guardian_name"`
	GuardianContact string    `db:"guardian_contact" json:"guardian_contact"`
	ClassGroup      string    `db:"class_group" json:"class_group"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail augments the student with its school name.
type StudentDetail struct {
	Student
	SchoolName string `db:"school_name" json:"school_name"`
}

// StudentSummary is a list row carrying the computed age and status.
type StudentSummary struct {
	StudentDetail
	AgeMonths     int                    `json:"age_months"`
	CurrentStatus ImmunizationStatusCode `json:"current_status"`
}

// StudentFilter captures filters for listing students.
type StudentFilter struct {
	Dashboard DashboardFilter
	Page      int
	PageSize  int
}

// StudentQuery is the SQL-level subset of the student filters.
type StudentQuery struct {
	Search   string
	SchoolID string
	Sex      Sex
}
