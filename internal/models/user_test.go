package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapabilityManageCatalog))
	assert.True(t, RoleAdmin.Can(CapabilityAllSchools))

	assert.True(t, RoleSchool.Can(CapabilityManageSchoolData))
	assert.True(t, RoleSchool.Can(CapabilitySchoolDashboard))
	assert.False(t, RoleSchool.Can(CapabilityHealthDashboard))
	assert.False(t, RoleSchool.Can(CapabilityAllSchools))

	assert.True(t, RoleHealth.Can(CapabilityHealthDashboard))
	assert.True(t, RoleHealth.Can(CapabilityAllSchools))
	assert.False(t, RoleHealth.Can(CapabilityManageSchoolData))
	assert.False(t, RoleHealth.Can(CapabilityManageCatalog))

	assert.False(t, UserRole("NURSE").Can(CapabilitySchoolDashboard))
	assert.False(t, UserRole("NURSE").Valid())
}

func TestScopeFromClaims(t *testing.T) {
	assert.Equal(t, Scope{AllSchools: true}, ScopeFromClaims(&JWTClaims{Role: RoleHealth, SchoolID: "s1"}))
	assert.Equal(t, Scope{SchoolID: "s1"}, ScopeFromClaims(&JWTClaims{Role: RoleSchool, SchoolID: "s1"}))

	orphan := ScopeFromClaims(&JWTClaims{Role: RoleSchool})
	assert.True(t, orphan.Empty())
	assert.False(t, orphan.Allows(""))

	assert.True(t, ScopeFromClaims(nil).Empty())
	assert.True(t, Scope{AllSchools: true}.Allows("any"))
	assert.False(t, Scope{SchoolID: "s1"}.Allows("s2"))
}
