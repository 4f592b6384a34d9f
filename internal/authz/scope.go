package authz

import (
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/models"
)

// Scope is a visibility filter applied to a list query. List endpoints scope
// the collection instead of rejecting the whole request, so the engine hands
// back predicates rather than booleans.
type Scope func(*gorm.DB) *gorm.DB

func allowAll(db *gorm.DB) *gorm.DB { return db }

// deny-by-default: no matching rule yields the empty set.
func denyAll(db *gorm.DB) *gorm.DB { return db.Where("1 = 0") }

// ShiftsFor returns the shift visibility filter for the actor.
//
// Precedence, highest first: staff/head_office unrestricted; region managers
// see their region's branches; branch managers their branch; employees their
// branch's open shifts plus anything they claimed or were assigned; floating
// employees the same carve-out across their region.
func ShiftsFor(actor Actor) Scope {
	if actor.Unrestricted() {
		return allowAll
	}

	switch actor.Role {
	case models.RoleRegionManager:
		regionID := actor.regionID()
		if regionID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("shifts.branch_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Branch{}).Select("id").Where("region_id = ?", regionID))
		}

	case models.RoleBranchManager:
		branchID := actor.branchID()
		if branchID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("shifts.branch_id = ?", branchID)
		}

	case models.RoleEmployee:
		branchID := actor.branchID()
		if branchID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(
				"(shifts.branch_id = ? AND shifts.status = ?) OR shifts.assigned_to_id = ? OR shifts.id IN (?)",
				branchID, models.ShiftOpen, actor.UserID,
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.ShiftClaim{}).Select("shift_id").Where("user_id = ?", actor.UserID),
			)
		}

	case models.RoleFloatingEmployee:
		regionID := actor.regionID()
		if regionID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(
				"(shifts.branch_id IN (?) AND shifts.status = ?) OR shifts.assigned_to_id = ? OR shifts.id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Branch{}).Select("id").Where("region_id = ?", regionID),
				models.ShiftOpen, actor.UserID,
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.ShiftClaim{}).Select("shift_id").Where("user_id = ?", actor.UserID),
			)
		}
	}

	return denyAll
}

// ClaimsFor returns the claim visibility filter: managers see claims on shifts
// within their scope, claimants see their own claims.
func ClaimsFor(actor Actor) Scope {
	if actor.Unrestricted() {
		return allowAll
	}

	switch actor.Role {
	case models.RoleRegionManager:
		regionID := actor.regionID()
		if regionID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("shift_claims.shift_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Shift{}).Select("shifts.id").
					Where("shifts.branch_id IN (?)",
						db.Session(&gorm.Session{NewDB: true}).
							Model(&models.Branch{}).Select("id").Where("region_id = ?", regionID)))
		}

	case models.RoleBranchManager:
		branchID := actor.branchID()
		if branchID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("shift_claims.shift_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Shift{}).Select("shifts.id").Where("shifts.branch_id = ?", branchID))
		}

	case models.RoleEmployee, models.RoleFloatingEmployee:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("shift_claims.user_id = ?", actor.UserID)
		}
	}

	return denyAll
}

// InvitationsFor returns the invitation visibility filter. Only managers see
// invitations, scoped exactly like shifts.
func InvitationsFor(actor Actor) Scope {
	if actor.Unrestricted() {
		return allowAll
	}

	switch actor.Role {
	case models.RoleRegionManager:
		regionID := actor.regionID()
		if regionID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("invitations.branch_id IN (?)",
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Branch{}).Select("id").Where("region_id = ?", regionID))
		}

	case models.RoleBranchManager:
		branchID := actor.branchID()
		if branchID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("invitations.branch_id = ?", branchID)
		}
	}

	return denyAll
}

// UsersFor returns the user-directory visibility filter. Everyone can always
// load their own row regardless of branch assignment.
func UsersFor(actor Actor) Scope {
	if actor.Unrestricted() {
		return allowAll
	}

	switch actor.Role {
	case models.RoleRegionManager:
		regionID := actor.regionID()
		if regionID == "" {
			return denyAll
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("users.id = ? OR users.branch_id IN (?)", actor.UserID,
				db.Session(&gorm.Session{NewDB: true}).
					Model(&models.Branch{}).Select("id").Where("region_id = ?", regionID))
		}

	case models.RoleBranchManager, models.RoleEmployee, models.RoleFloatingEmployee:
		branchID := actor.branchID()
		if branchID == "" {
			return func(db *gorm.DB) *gorm.DB {
				return db.Where("users.id = ?", actor.UserID)
			}
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("users.id = ? OR users.branch_id = ?", actor.UserID, branchID)
		}
	}

	return denyAll
}
