package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleSchool UserRole = "ESCOLA"
	RoleHealth UserRole = "SAUDE"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capability names an operation family a role may perform.
type Capability string

const (
	CapabilityManageSchoolData Capability = "manage_school_data"
	CapabilitySchoolDashboard  Capability = "school_dashboard"
	CapabilityHealthDashboard  Capability = "health_dashboard"
	CapabilityManageCatalog    Capability = "manage_catalog"
	CapabilityAllSchools       Capability = "all_schools"
)

var roleCapabilities = map[UserRole]map[Capability]struct{}{
	RoleAdmin: {
		CapabilityManageSchoolData: {},
		CapabilitySchoolDashboard:  {},
		CapabilityHealthDashboard:  {},
		CapabilityManageCatalog:    {},
		CapabilityAllSchools:       {},
	},
	RoleSchool: {
		CapabilityManageSchoolData: {},
		CapabilitySchoolDashboard:  {},
	},
	RoleHealth: {
		CapabilitySchoolDashboard: {},
		CapabilityHealthDashboard: {},
		CapabilityAllSchools:      {},
	},
}

// Can reports whether the role grants the capability.
func (r UserRole) Can(capability Capability) bool {
	caps, ok := roleCapabilities[r]
	if !ok {
		return false
	}
	_, ok = caps[capability]
	return ok
}

// User represents an application user stored in the users table.
type User struct {
	ID           string     `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	FullName     string     `db:"full_name" json:"full_name"`
	Role         UserRole   `db:"role" json:"role"`
	SchoolID     *string    `db:"school_id" json:"school_id,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Scope describes which schools a caller can see.
type Scope struct {
	AllSchools bool
	SchoolID   string
}

// ScopeFromClaims derives the visibility scope of an authenticated caller.
// A school user without a school sees nothing.
func ScopeFromClaims(claims *JWTClaims) Scope {
	if claims == nil {
		return Scope{}
	}
	if claims.Role.Can(CapabilityAllSchools) {
		return Scope{AllSchools: true}
	}
	return Scope{SchoolID: claims.SchoolID}
}

// Empty reports whether the scope cannot see any school.
func (s Scope) Empty() bool {
	return !s.AllSchools && s.SchoolID == ""
}

// Allows reports whether the scope covers the given school.
func (s Scope) Allows(schoolID string) bool {
	if s.AllSchools {
		return true
	}
	return s.SchoolID != "" && s.SchoolID == schoolID
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
