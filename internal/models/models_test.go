package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	_, err := ParseRole("manager")
	assert.Error(t, err)
	_, err = ParseRole("")
	assert.Error(t, err)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleHeadOffice.IsManager())
	assert.True(t, RoleRegionManager.IsManager())
	assert.True(t, RoleBranchManager.IsManager())
	assert.False(t, RoleEmployee.IsManager())
	assert.False(t, RoleFloatingEmployee.IsManager())

	assert.True(t, RoleEmployee.CanClaimShifts())
	assert.True(t, RoleFloatingEmployee.CanClaimShifts())
	assert.False(t, RoleBranchManager.CanClaimShifts())

	assert.True(t, RoleEmployee.RequiresBranch())
	assert.True(t, RoleBranchManager.RequiresBranch())
	assert.False(t, RoleHeadOffice.RequiresBranch())
}

func TestShiftStatusTerminal(t *testing.T) {
	assert.False(t, ShiftOpen.Terminal())
	assert.False(t, ShiftClaimed.Terminal())
	assert.True(t, ShiftFilled.Terminal())
	assert.True(t, ShiftClosed.Terminal())
}

func TestUserFullName(t *testing.T) {
	u := &User{FirstName: "Ada", LastName: "Lovelace"}
	assert.Equal(t, "Ada Lovelace", u.FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
	assert.Equal(t, "Lovelace", (&User{LastName: "Lovelace"}).FullName())
}

func TestBranchRegionID(t *testing.T) {
	regionID := "2f1a7d8e-3f44-4b4f-9a6a-111111111111"
	u := &User{Branch: &Branch{RegionID: &regionID}}
	require.NotNil(t, u.BranchRegionID())
	assert.Equal(t, regionID, *u.BranchRegionID())

	assert.Nil(t, (&User{}).BranchRegionID())
}
