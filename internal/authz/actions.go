package authz

import (
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"

	"github.com/rotaiq/rotaiq/internal/models"
)

// Action checks are pure: they decide on already-loaded rows and perform no
// I/O. Callers surface the returned AppError as a 403.

// CanManageBranch decides whether the actor may perform manager operations
// (post shifts, issue invitations, assign staff, arbitrate claims) on the
// given branch.
func CanManageBranch(actor Actor, branch *models.Branch) error {
	if branch == nil {
		return apperrors.ErrNotFound
	}
	if actor.Unrestricted() {
		return nil
	}

	switch actor.Role {
	case models.RoleRegionManager:
		if branch.RegionID != nil && actor.RegionID != nil && *branch.RegionID == *actor.RegionID {
			return nil
		}
		return apperrors.NewForbidden("branch is outside your region")

	case models.RoleBranchManager:
		if actor.BranchID != nil && branch.ID == *actor.BranchID {
			return nil
		}
		return apperrors.NewForbidden("branch is outside your scope")

	case models.RoleEmployee, models.RoleFloatingEmployee:
		return apperrors.NewForbidden("manager role required")
	}

	return apperrors.ErrForbidden
}

// CanArbitrate decides whether the actor may approve or decline claims on the
// shift. The shift's branch must be preloaded.
func CanArbitrate(actor Actor, shift *models.Shift) error {
	if shift == nil {
		return apperrors.ErrNotFound
	}
	return CanManageBranch(actor, shift.Branch)
}

// CanClaim decides whether the actor may claim the shift. Employees claim
// within their branch; floating employees anywhere in their branch's region.
func CanClaim(actor Actor, shift *models.Shift) error {
	if shift == nil {
		return apperrors.ErrNotFound
	}
	if !actor.Role.CanClaimShifts() {
		return apperrors.NewForbidden("only employees can claim shifts")
	}

	switch actor.Role {
	case models.RoleEmployee:
		if actor.BranchID != nil && shift.BranchID == *actor.BranchID {
			return nil
		}
		return apperrors.NewForbidden("shift belongs to another branch")

	case models.RoleFloatingEmployee:
		if shift.Branch != nil && shift.Branch.RegionID != nil &&
			actor.RegionID != nil && *shift.Branch.RegionID == *actor.RegionID {
			return nil
		}
		return apperrors.NewForbidden("shift is outside your region")
	}

	return apperrors.ErrForbidden
}

// CanInviteRole decides whether the actor may issue an invitation carrying the
// given role. Nobody hands out a role above their own rank.
func CanInviteRole(actor Actor, role models.Role) error {
	if actor.Unrestricted() {
		return nil
	}

	switch actor.Role {
	case models.RoleRegionManager:
		if role == models.RoleHeadOffice {
			return apperrors.NewForbidden("cannot invite head office accounts")
		}
		return nil

	case models.RoleBranchManager:
		switch role {
		case models.RoleEmployee, models.RoleFloatingEmployee:
			return nil
		}
		return apperrors.NewForbidden("branch managers may only invite employees")
	}

	return apperrors.NewForbidden("manager role required")
}
