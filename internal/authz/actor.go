package authz

import (
	"github.com/rotaiq/rotaiq/internal/models"
)

// Actor is the resolved principal every decision runs against. It is built once
// per request by the auth middleware from the loaded user row; the engine never
// touches raw credentials.
type Actor struct {
	UserID   string
	Role     models.Role
	BranchID *string
	RegionID *string
	IsStaff  bool
}

// ActorFromUser derives the decision inputs from a loaded user. The region is
// the user's explicit region when set (region managers), otherwise the region
// of the user's branch.
func ActorFromUser(u *models.User) Actor {
	actor := Actor{
		UserID:   u.ID,
		Role:     u.Role,
		BranchID: u.BranchID,
		RegionID: u.RegionID,
		IsStaff:  u.IsStaff,
	}
	if actor.RegionID == nil {
		actor.RegionID = u.BranchRegionID()
	}
	return actor
}

// Unrestricted reports whether the actor bypasses all scope filtering.
func (a Actor) Unrestricted() bool {
	return a.IsStaff || a.Role == models.RoleHeadOffice
}

func (a Actor) branchID() string {
	if a.BranchID == nil {
		return ""
	}
	return *a.BranchID
}

func (a Actor) regionID() string {
	if a.RegionID == nil {
		return ""
	}
	return *a.RegionID
}
