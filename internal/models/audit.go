package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionLogin             = "LOGIN"
	AuditActionStudentCreate     = "STUDENT_CREATE"
	AuditActionStudentUpdate     = "STUDENT_UPDATE"
	AuditActionStudentDelete     = "STUDENT_DELETE"
	AuditActionVaccinationCreate = "VACCINATION_CREATE"
	AuditActionVaccinationUpdate = "VACCINATION_UPDATE"
	AuditActionVaccinationDelete = "VACCINATION_DELETE"
	AuditActionScheduleActivate  = "SCHEDULE_ACTIVATE"
	AuditActionPreferencesUpdate = "PREFERENCES_UPDATE"
	AuditActionPendingExport     = "PENDING_EXPORT"
	AuditActionCatalogChange     = "CATALOG_CHANGE"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditMeta carries request details attached to audit entries.
type AuditMeta struct {
	UserID    string
	IP        string
	UserAgent string
}
