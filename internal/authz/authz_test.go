package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/database/testutil"
	"github.com/rotaiq/rotaiq/internal/models"
)

type fixture struct {
	db *gorm.DB

	regionR models.Region
	regionS models.Region
	b1      models.Branch // region R
	b2      models.Branch // region R
	b3      models.Branch // region S

	headOffice models.User
	regionMgr  models.User // region R
	branchMgr  models.User // branch B1
	employee   models.User // branch B1
	floating   models.User // branch B1, roams region R
	outsider   models.User // branch B3

	openB1    models.Shift
	openB2    models.Shift
	openB3    models.Shift
	claimedB2 models.Shift // claimed by employee
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: testutil.MustOpenTestDB(t)}

	f.regionR = models.Region{Name: "North"}
	f.regionS = models.Region{Name: "South"}
	require.NoError(t, f.db.Create(&f.regionR).Error)
	require.NoError(t, f.db.Create(&f.regionS).Error)

	f.b1 = models.Branch{Name: "Kilburn High Road", RegionID: &f.regionR.ID}
	f.b2 = models.Branch{Name: "Camden Lock", RegionID: &f.regionR.ID}
	f.b3 = models.Branch{Name: "Brighton Lanes", RegionID: &f.regionS.ID}
	require.NoError(t, f.db.Create(&f.b1).Error)
	require.NoError(t, f.db.Create(&f.b2).Error)
	require.NoError(t, f.db.Create(&f.b3).Error)

	f.headOffice = models.User{Email: "ho@rotaiq.uk", Password: "x", Role: models.RoleHeadOffice, IsStaff: true}
	f.regionMgr = models.User{Email: "rm@rotaiq.uk", Password: "x", Role: models.RoleRegionManager, RegionID: &f.regionR.ID}
	f.branchMgr = models.User{Email: "bm@rotaiq.uk", Password: "x", Role: models.RoleBranchManager, BranchID: &f.b1.ID}
	f.employee = models.User{Email: "emp@rotaiq.uk", Password: "x", Role: models.RoleEmployee, BranchID: &f.b1.ID}
	f.floating = models.User{Email: "float@rotaiq.uk", Password: "x", Role: models.RoleFloatingEmployee, BranchID: &f.b1.ID}
	f.outsider = models.User{Email: "out@rotaiq.uk", Password: "x", Role: models.RoleEmployee, BranchID: &f.b3.ID}
	for _, u := range []*models.User{&f.headOffice, &f.regionMgr, &f.branchMgr, &f.employee, &f.floating, &f.outsider} {
		require.NoError(t, f.db.Create(u).Error)
	}

	f.openB1 = shift(t, f.db, f.b1.ID, f.branchMgr.ID, models.ShiftOpen)
	f.openB2 = shift(t, f.db, f.b2.ID, f.regionMgr.ID, models.ShiftOpen)
	f.openB3 = shift(t, f.db, f.b3.ID, f.headOffice.ID, models.ShiftOpen)
	f.claimedB2 = shift(t, f.db, f.b2.ID, f.regionMgr.ID, models.ShiftClaimed)

	require.NoError(t, f.db.Create(&models.ShiftClaim{
		ShiftID: f.claimedB2.ID,
		UserID:  f.employee.ID,
		Status:  models.ClaimPending,
	}).Error)

	return f
}

func shift(t *testing.T, db *gorm.DB, branchID, postedBy string, status models.ShiftStatus) models.Shift {
	t.Helper()
	s := models.Shift{
		BranchID:   branchID,
		PostedByID: postedBy,
		Role:       "Cashier",
		Status:     status,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func actorFor(t *testing.T, db *gorm.DB, id string) Actor {
	t.Helper()
	var u models.User
	require.NoError(t, db.Preload("Branch").First(&u, "id = ?", id).Error)
	return ActorFromUser(&u)
}

func visibleShiftIDs(t *testing.T, db *gorm.DB, actor Actor) map[string]bool {
	t.Helper()
	var shifts []models.Shift
	require.NoError(t, db.Model(&models.Shift{}).Scopes(ShiftsFor(actor)).Find(&shifts).Error)
	ids := make(map[string]bool, len(shifts))
	for _, s := range shifts {
		ids[s.ID] = true
	}
	return ids
}

func TestShiftVisibilityHeadOffice(t *testing.T) {
	f := newFixture(t)
	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, f.headOffice.ID))
	assert.Len(t, ids, 4)
}

func TestShiftVisibilityRegionManager(t *testing.T) {
	f := newFixture(t)
	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, f.regionMgr.ID))
	assert.True(t, ids[f.openB1.ID])
	assert.True(t, ids[f.openB2.ID])
	assert.True(t, ids[f.claimedB2.ID])
	assert.False(t, ids[f.openB3.ID], "other region must be hidden")
}

func TestShiftVisibilityBranchManager(t *testing.T) {
	f := newFixture(t)
	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, f.branchMgr.ID))
	assert.True(t, ids[f.openB1.ID])
	assert.False(t, ids[f.openB2.ID])
	assert.False(t, ids[f.openB3.ID])
}

func TestShiftVisibilityEmployee(t *testing.T) {
	f := newFixture(t)
	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, f.employee.ID))

	assert.True(t, ids[f.openB1.ID], "own branch open shift")
	assert.False(t, ids[f.openB2.ID], "other branch stays hidden")
	assert.False(t, ids[f.openB3.ID])
	// claimedB2 belongs to another branch but the employee holds a claim on it.
	assert.True(t, ids[f.claimedB2.ID])
}

func TestShiftVisibilityFloatingEmployee(t *testing.T) {
	f := newFixture(t)
	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, f.floating.ID))

	assert.True(t, ids[f.openB1.ID])
	assert.True(t, ids[f.openB2.ID], "open shifts across the region")
	assert.False(t, ids[f.openB3.ID], "other region stays hidden")
	assert.False(t, ids[f.claimedB2.ID], "claimed shift without own claim is hidden")
}

func TestShiftVisibilityDenyByDefault(t *testing.T) {
	f := newFixture(t)

	// An employee without a branch matches no rule.
	orphan := models.User{Email: "orphan@rotaiq.uk", Password: "x", Role: models.RoleEmployee}
	require.NoError(t, f.db.Create(&orphan).Error)

	ids := visibleShiftIDs(t, f.db, actorFor(t, f.db, orphan.ID))
	assert.Empty(t, ids)
}

func TestClaimVisibility(t *testing.T) {
	f := newFixture(t)

	var claims []models.ShiftClaim
	require.NoError(t, f.db.Model(&models.ShiftClaim{}).
		Scopes(ClaimsFor(actorFor(t, f.db, f.regionMgr.ID))).Find(&claims).Error)
	assert.Len(t, claims, 1)

	claims = nil
	require.NoError(t, f.db.Model(&models.ShiftClaim{}).
		Scopes(ClaimsFor(actorFor(t, f.db, f.employee.ID))).Find(&claims).Error)
	assert.Len(t, claims, 1, "claimant sees own claim")

	claims = nil
	require.NoError(t, f.db.Model(&models.ShiftClaim{}).
		Scopes(ClaimsFor(actorFor(t, f.db, f.outsider.ID))).Find(&claims).Error)
	assert.Empty(t, claims)

	claims = nil
	require.NoError(t, f.db.Model(&models.ShiftClaim{}).
		Scopes(ClaimsFor(actorFor(t, f.db, f.branchMgr.ID))).Find(&claims).Error)
	assert.Empty(t, claims, "claim on B2 shift is outside B1 manager scope")
}

func TestUserVisibility(t *testing.T) {
	f := newFixture(t)

	var users []models.User
	require.NoError(t, f.db.Model(&models.User{}).
		Scopes(UsersFor(actorFor(t, f.db, f.branchMgr.ID))).Find(&users).Error)
	emails := make(map[string]bool, len(users))
	for _, u := range users {
		emails[u.Email] = true
	}
	assert.True(t, emails[f.branchMgr.Email])
	assert.True(t, emails[f.employee.Email])
	assert.False(t, emails[f.outsider.Email])
}

func TestCanManageBranch(t *testing.T) {
	f := newFixture(t)

	b1 := branchWithRegion(t, f.db, f.b1.ID)
	b3 := branchWithRegion(t, f.db, f.b3.ID)

	assert.NoError(t, CanManageBranch(actorFor(t, f.db, f.headOffice.ID), b1))
	assert.NoError(t, CanManageBranch(actorFor(t, f.db, f.regionMgr.ID), b1))
	assert.Error(t, CanManageBranch(actorFor(t, f.db, f.regionMgr.ID), b3))
	assert.NoError(t, CanManageBranch(actorFor(t, f.db, f.branchMgr.ID), b1))
	assert.Error(t, CanManageBranch(actorFor(t, f.db, f.branchMgr.ID), b3))
	assert.Error(t, CanManageBranch(actorFor(t, f.db, f.employee.ID), b1))
}

func TestCanClaim(t *testing.T) {
	f := newFixture(t)

	var openB2 models.Shift
	require.NoError(t, f.db.Preload("Branch").First(&openB2, "id = ?", f.openB2.ID).Error)
	var openB3 models.Shift
	require.NoError(t, f.db.Preload("Branch").First(&openB3, "id = ?", f.openB3.ID).Error)
	var openB1 models.Shift
	require.NoError(t, f.db.Preload("Branch").First(&openB1, "id = ?", f.openB1.ID).Error)

	assert.NoError(t, CanClaim(actorFor(t, f.db, f.employee.ID), &openB1))
	assert.Error(t, CanClaim(actorFor(t, f.db, f.employee.ID), &openB2), "employee is branch-bound")
	assert.NoError(t, CanClaim(actorFor(t, f.db, f.floating.ID), &openB2), "floating roams the region")
	assert.Error(t, CanClaim(actorFor(t, f.db, f.floating.ID), &openB3))
	assert.Error(t, CanClaim(actorFor(t, f.db, f.branchMgr.ID), &openB1), "managers do not claim")
}

func TestCanInviteRole(t *testing.T) {
	f := newFixture(t)

	ho := actorFor(t, f.db, f.headOffice.ID)
	rm := actorFor(t, f.db, f.regionMgr.ID)
	bm := actorFor(t, f.db, f.branchMgr.ID)
	emp := actorFor(t, f.db, f.employee.ID)

	assert.NoError(t, CanInviteRole(ho, models.RoleHeadOffice))
	assert.NoError(t, CanInviteRole(rm, models.RoleBranchManager))
	assert.Error(t, CanInviteRole(rm, models.RoleHeadOffice))
	assert.NoError(t, CanInviteRole(bm, models.RoleEmployee))
	assert.NoError(t, CanInviteRole(bm, models.RoleFloatingEmployee))
	assert.Error(t, CanInviteRole(bm, models.RoleBranchManager))
	assert.Error(t, CanInviteRole(emp, models.RoleEmployee))
}

func branchWithRegion(t *testing.T, db *gorm.DB, id string) *models.Branch {
	t.Helper()
	var b models.Branch
	require.NoError(t, db.Preload("Region").First(&b, "id = ?", id).Error)
	return &b
}
