package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/models"
)

var shiftStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func TestShiftCreateScope(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift, err := svc.Create(context.Background(), f.actor(t, f.b1Manager.ID), CreateShiftInput{
		BranchID:  f.b1.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(8 * time.Hour),
		Role:      "Barista",
	})
	require.NoError(t, err)
	require.Equal(t, models.ShiftOpen, shift.Status)
	require.Equal(t, f.b1Manager.ID, shift.PostedByID)

	// B1's manager cannot post on B2.
	_, err = svc.Create(context.Background(), f.actor(t, f.b1Manager.ID), CreateShiftInput{
		BranchID:  f.b2.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(8 * time.Hour),
		Role:      "Barista",
	})
	require.Error(t, err)

	// Region manager spans both branches of North.
	_, err = svc.Create(context.Background(), f.actor(t, f.regionMgr.ID), CreateShiftInput{
		BranchID:  f.b2.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(8 * time.Hour),
		Role:      "Barista",
	})
	require.NoError(t, err)

	// Employees cannot post at all.
	_, err = svc.Create(context.Background(), f.actor(t, f.b1Employee.ID), CreateShiftInput{
		BranchID:  f.b1.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(8 * time.Hour),
		Role:      "Barista",
	})
	require.Error(t, err)
}

func TestShiftCreateValidatesTimes(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), f.actor(t, f.b1Manager.ID), CreateShiftInput{
		BranchID:  f.b1.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(-time.Hour),
		Role:      "Barista",
	})
	require.Error(t, err)
}

func TestShiftClaimIdempotent(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	actor := f.actor(t, f.b1Employee.ID)

	first, err := svc.Claim(context.Background(), actor, shift.ID)
	require.NoError(t, err)
	require.Equal(t, models.ClaimPending, first.Status)
	require.Equal(t, models.ShiftClaimed, f.reloadShift(t, shift.ID).Status)

	second, err := svc.Claim(context.Background(), actor, shift.ID)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID, "repeat claim returns the same row")

	var count int64
	require.NoError(t, f.db.Model(&models.ShiftClaim{}).Where("shift_id = ?", shift.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestShiftClaimScope(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shiftB2 := f.createShift(t, f.b2.ID, f.regionMgr.ID, models.ShiftOpen, shiftStart)

	// Branch-bound employee of B1 cannot claim on B2.
	_, err = svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), shiftB2.ID)
	require.Error(t, err)

	// Floating employee of region North can.
	_, err = svc.Claim(context.Background(), f.actor(t, f.floating.ID), shiftB2.ID)
	require.NoError(t, err)

	// Managers do not claim.
	_, err = svc.Claim(context.Background(), f.actor(t, f.b1Manager.ID), shiftB2.ID)
	require.Error(t, err)
}

func TestShiftClaimTerminalStatus(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	filled := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftFilled, shiftStart)
	_, err = svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), filled.ID)
	require.ErrorIs(t, err, ErrShiftFilled)

	closed := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftClosed, shiftStart)
	_, err = svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), closed.ID)
	require.ErrorIs(t, err, ErrShiftFilled)
}

func TestApproveClaimArbitration(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)

	winner, err := svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), shift.ID)
	require.NoError(t, err)
	loser, err := svc.Claim(context.Background(), f.actor(t, f.floating.ID), shift.ID)
	require.NoError(t, err)

	approved, err := svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), winner.ID)
	require.NoError(t, err)
	require.Equal(t, models.ClaimApproved, approved.Status)

	stored := f.reloadShift(t, shift.ID)
	require.Equal(t, models.ShiftFilled, stored.Status)
	require.Equal(t, f.b1Employee.ID, *stored.AssignedToID)

	// The sibling claim was declined in the same transaction.
	var sibling models.ShiftClaim
	require.NoError(t, f.db.First(&sibling, "id = ?", loser.ID).Error)
	require.Equal(t, models.ClaimDeclined, sibling.Status)

	// A second approval attempt on the declined sibling conflicts.
	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), loser.ID)
	require.ErrorIs(t, err, ErrClaimResolved)

	// Re-approving the winner also conflicts: it is no longer pending.
	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), winner.ID)
	require.ErrorIs(t, err, ErrClaimResolved)
}

func TestApproveClaimScope(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b2.ID, f.regionMgr.ID, models.ShiftOpen, shiftStart)
	claim, err := svc.Claim(context.Background(), f.actor(t, f.b2Employee.ID), shift.ID)
	require.NoError(t, err)

	// B1's manager has no authority over a B2 shift.
	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), claim.ID)
	require.Error(t, err)

	// Claimants cannot approve their own claim.
	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b2Employee.ID), claim.ID)
	require.Error(t, err)

	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.regionMgr.ID), claim.ID)
	require.NoError(t, err)
}

func TestDeclineClaimReopensShift(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	manager := f.actor(t, f.b1Manager.ID)

	first, err := svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), shift.ID)
	require.NoError(t, err)
	second, err := svc.Claim(context.Background(), f.actor(t, f.floating.ID), shift.ID)
	require.NoError(t, err)

	// Declining one of two claims keeps the shift claimed.
	_, err = svc.DeclineClaim(context.Background(), manager, first.ID)
	require.NoError(t, err)
	require.Equal(t, models.ShiftClaimed, f.reloadShift(t, shift.ID).Status)

	// Declining the last pending claim reverts the shift to open.
	_, err = svc.DeclineClaim(context.Background(), manager, second.ID)
	require.NoError(t, err)
	stored := f.reloadShift(t, shift.ID)
	require.Equal(t, models.ShiftOpen, stored.Status)
	require.Nil(t, stored.AssignedToID)

	// Declining an already-declined claim conflicts.
	_, err = svc.DeclineClaim(context.Background(), manager, second.ID)
	require.ErrorIs(t, err, ErrClaimResolved)
}

func TestApproveClaimSeesRacingDecline(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	claim, err := svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), shift.ID)
	require.NoError(t, err)

	// Decline the claim right after the approver's first read of it, the way
	// a decline committing while the approver waits on the shift row would.
	fired := false
	err = f.db.Callback().Query().After("gorm:query").Register("shift_test_racing_decline", func(d *gorm.DB) {
		if fired || d.Statement.Table != "shift_claims" {
			return
		}
		fired = true
		_, execErr := d.Statement.ConnPool.ExecContext(d.Statement.Context,
			"UPDATE shift_claims SET status = ? WHERE id = ?", string(models.ClaimDeclined), claim.ID)
		require.NoError(t, execErr)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.db.Callback().Query().Remove("shift_test_racing_decline"))
	})

	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), claim.ID)
	require.ErrorIs(t, err, ErrClaimResolved)
	require.True(t, fired)

	// The stale approval never lands.
	stored := f.reloadShift(t, shift.ID)
	require.NotEqual(t, models.ShiftFilled, stored.Status)
	require.Nil(t, stored.AssignedToID)

	var storedClaim models.ShiftClaim
	require.NoError(t, f.db.First(&storedClaim, "id = ?", claim.ID).Error)
	require.NotEqual(t, models.ClaimApproved, storedClaim.Status)
}

func TestAssignStaff(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)

	// A pending claim from someone else gets declined by direct assignment.
	claim, err := svc.Claim(context.Background(), f.actor(t, f.floating.ID), shift.ID)
	require.NoError(t, err)

	assigned, err := svc.AssignStaff(context.Background(), f.actor(t, f.b1Manager.ID), shift.ID, f.b1Employee.ID)
	require.NoError(t, err)
	require.Equal(t, models.ShiftFilled, assigned.Status)
	require.Equal(t, f.b1Employee.ID, *assigned.AssignedToID)

	var stored models.ShiftClaim
	require.NoError(t, f.db.First(&stored, "id = ?", claim.ID).Error)
	require.Equal(t, models.ClaimDeclined, stored.Status)

	// A filled shift cannot be assigned again.
	_, err = svc.AssignStaff(context.Background(), f.actor(t, f.b1Manager.ID), shift.ID, f.floating.ID)
	require.ErrorIs(t, err, ErrShiftFilled)
}

func TestAssignStaffIneligible(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)

	// B2's employee is branch-bound elsewhere.
	_, err = svc.AssignStaff(context.Background(), f.actor(t, f.b1Manager.ID), shift.ID, f.b2Employee.ID)
	require.Error(t, err)

	// Managers are not assignable staff.
	_, err = svc.AssignStaff(context.Background(), f.actor(t, f.b1Manager.ID), shift.ID, f.b1Manager.ID)
	require.Error(t, err)
}

func TestListShiftsScopedAndFiltered(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftFilled, shiftStart.Add(24*time.Hour))
	f.createShift(t, f.b3.ID, f.headOffice.ID, models.ShiftOpen, shiftStart)

	all, err := svc.List(context.Background(), f.actor(t, f.headOffice.ID), ListShiftsOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	b1Only, err := svc.List(context.Background(), f.actor(t, f.b1Manager.ID), ListShiftsOptions{})
	require.NoError(t, err)
	require.Len(t, b1Only, 2)

	open, err := svc.List(context.Background(), f.actor(t, f.b1Manager.ID), ListShiftsOptions{Status: "open"})
	require.NoError(t, err)
	require.Len(t, open, 1)

	// Employee of B1 sees the open shift but not the filled one.
	visible, err := svc.List(context.Background(), f.actor(t, f.b1Employee.ID), ListShiftsOptions{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestMineListsAssignedShifts(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	_, err = svc.Claim(context.Background(), f.actor(t, f.b1Employee.ID), shift.ID)
	require.NoError(t, err)

	claims, err := svc.ListClaims(context.Background(), f.actor(t, f.b1Manager.ID))
	require.NoError(t, err)
	require.Len(t, claims, 1)

	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), claims[0].ID)
	require.NoError(t, err)

	mine, err := svc.Mine(context.Background(), f.b1Employee.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, shift.ID, mine[0].ID)

	none, err := svc.Mine(context.Background(), f.floating.ID)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestCloseExpired(t *testing.T) {
	f := newOrgFixture(t)

	current := shiftStart.Add(48 * time.Hour)
	svc, err := NewShiftService(f.db, WithShiftClock(func() time.Time { return current }))
	require.NoError(t, err)

	expired := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, shiftStart)
	claimed := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftClaimed, shiftStart)
	future := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftOpen, current.Add(24*time.Hour))
	filled := f.createShift(t, f.b1.ID, f.b1Manager.ID, models.ShiftFilled, shiftStart)

	require.NoError(t, f.db.Create(&models.ShiftClaim{
		ShiftID: claimed.ID,
		UserID:  f.b1Employee.ID,
		Status:  models.ClaimPending,
	}).Error)

	closed, err := svc.CloseExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, closed)

	require.Equal(t, models.ShiftClosed, f.reloadShift(t, expired.ID).Status)
	require.Equal(t, models.ShiftClosed, f.reloadShift(t, claimed.ID).Status)
	require.Equal(t, models.ShiftOpen, f.reloadShift(t, future.ID).Status)
	require.Equal(t, models.ShiftFilled, f.reloadShift(t, filled.ID).Status)

	var stale models.ShiftClaim
	require.NoError(t, f.db.First(&stale, "shift_id = ?", claimed.ID).Error)
	require.Equal(t, models.ClaimDeclined, stale.Status)

	// Idempotent on a second run.
	closed, err = svc.CloseExpired(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, closed)
}

// Full walkthrough: a region manager posts a shift on a branch they oversee, a
// foreign branch manager is rejected, the branch's employee claims it, and the
// region manager approves.
func TestRegionalArbitrationScenario(t *testing.T) {
	f := newOrgFixture(t)
	svc, err := NewShiftService(f.db)
	require.NoError(t, err)

	shift, err := svc.Create(context.Background(), f.actor(t, f.regionMgr.ID), CreateShiftInput{
		BranchID:  f.b2.ID,
		StartTime: shiftStart,
		EndTime:   shiftStart.Add(8 * time.Hour),
		Role:      "Supervisor",
	})
	require.NoError(t, err)

	// The B1 manager can neither see nor arbitrate it.
	visible, err := svc.List(context.Background(), f.actor(t, f.b1Manager.ID), ListShiftsOptions{})
	require.NoError(t, err)
	require.Empty(t, visible)

	claim, err := svc.Claim(context.Background(), f.actor(t, f.b2Employee.ID), shift.ID)
	require.NoError(t, err)

	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.b1Manager.ID), claim.ID)
	require.Error(t, err)

	_, err = svc.ApproveClaim(context.Background(), f.actor(t, f.regionMgr.ID), claim.ID)
	require.NoError(t, err)

	stored := f.reloadShift(t, shift.ID)
	require.Equal(t, models.ShiftFilled, stored.Status)
	require.Equal(t, f.b2Employee.ID, *stored.AssignedToID)
}
