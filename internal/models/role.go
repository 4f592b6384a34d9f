package models

import "fmt"

// Role is the closed set of organisational roles. The hierarchy, highest first:
// head_office > region_manager > branch_manager > {employee, floating_employee}.
type Role string

const (
	RoleHeadOffice       Role = "head_office"
	RoleRegionManager    Role = "region_manager"
	RoleBranchManager    Role = "branch_manager"
	RoleEmployee         Role = "employee"
	RoleFloatingEmployee Role = "floating_employee"
)

// Roles lists every valid role, used for seeding and payload validation.
var Roles = []Role{
	RoleHeadOffice,
	RoleRegionManager,
	RoleBranchManager,
	RoleEmployee,
	RoleFloatingEmployee,
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	switch role {
	case RoleHeadOffice, RoleRegionManager, RoleBranchManager, RoleEmployee, RoleFloatingEmployee:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// IsManager reports whether the role may post shifts, arbitrate claims, and
// issue invitations within its scope.
func (r Role) IsManager() bool {
	switch r {
	case RoleHeadOffice, RoleRegionManager, RoleBranchManager:
		return true
	case RoleEmployee, RoleFloatingEmployee:
		return false
	}
	return false
}

// CanClaimShifts reports whether the role participates in shift claiming.
func (r Role) CanClaimShifts() bool {
	return r == RoleEmployee || r == RoleFloatingEmployee
}

// RequiresBranch reports whether users with this role must be attached to a branch.
func (r Role) RequiresBranch() bool {
	switch r {
	case RoleEmployee, RoleBranchManager:
		return true
	case RoleFloatingEmployee, RoleRegionManager, RoleHeadOffice:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }
