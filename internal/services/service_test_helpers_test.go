package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/database/testutil"
	"github.com/rotaiq/rotaiq/internal/models"
	"github.com/rotaiq/rotaiq/pkg/crypto"
	"github.com/rotaiq/rotaiq/pkg/mail"
)

// orgFixture seeds a two-region hierarchy used across service tests:
// region North holds branches B1 and B2, region South holds B3.
type orgFixture struct {
	db *gorm.DB

	regionNorth models.Region
	regionSouth models.Region
	b1          models.Branch
	b2          models.Branch
	b3          models.Branch

	headOffice models.User // staff
	regionMgr  models.User // region North
	b1Manager  models.User // branch B1
	b1Employee models.User // branch B1
	b2Employee models.User // branch B2
	floating   models.User // branch B1, roams North
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()
	f := &orgFixture{db: testutil.MustOpenTestDB(t)}

	f.regionNorth = models.Region{Name: "North"}
	f.regionSouth = models.Region{Name: "South"}
	require.NoError(t, f.db.Create(&f.regionNorth).Error)
	require.NoError(t, f.db.Create(&f.regionSouth).Error)

	f.b1 = models.Branch{Name: "Kilburn High Road", RegionID: &f.regionNorth.ID}
	f.b2 = models.Branch{Name: "Camden Lock", RegionID: &f.regionNorth.ID}
	f.b3 = models.Branch{Name: "Brighton Lanes", RegionID: &f.regionSouth.ID}
	require.NoError(t, f.db.Create(&f.b1).Error)
	require.NoError(t, f.db.Create(&f.b2).Error)
	require.NoError(t, f.db.Create(&f.b3).Error)

	f.headOffice = f.createUser(t, "ho@rotaiq.uk", models.RoleHeadOffice, nil, nil, true)
	f.regionMgr = f.createUser(t, "rm@rotaiq.uk", models.RoleRegionManager, nil, &f.regionNorth.ID, false)
	f.b1Manager = f.createUser(t, "bm@rotaiq.uk", models.RoleBranchManager, &f.b1.ID, nil, false)
	f.b1Employee = f.createUser(t, "emp1@rotaiq.uk", models.RoleEmployee, &f.b1.ID, nil, false)
	f.b2Employee = f.createUser(t, "emp2@rotaiq.uk", models.RoleEmployee, &f.b2.ID, nil, false)
	f.floating = f.createUser(t, "float@rotaiq.uk", models.RoleFloatingEmployee, &f.b1.ID, nil, false)

	return f
}

func (f *orgFixture) createUser(t *testing.T, email string, role models.Role, branchID, regionID *string, staff bool) models.User {
	t.Helper()

	hashed, err := crypto.HashPassword("Password123!")
	require.NoError(t, err)

	user := models.User{
		Email:    email,
		Password: hashed,
		Role:     role,
		BranchID: branchID,
		RegionID: regionID,
		IsStaff:  staff,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func (f *orgFixture) actor(t *testing.T, userID string) authz.Actor {
	t.Helper()

	var user models.User
	require.NoError(t, f.db.Preload("Branch").First(&user, "id = ?", userID).Error)
	return authz.ActorFromUser(&user)
}

func (f *orgFixture) createShift(t *testing.T, branchID, postedByID string, status models.ShiftStatus, start time.Time) models.Shift {
	t.Helper()

	shift := models.Shift{
		BranchID:   branchID,
		PostedByID: postedByID,
		StartTime:  start,
		EndTime:    start.Add(8 * time.Hour),
		Role:       "Cashier",
		Status:     status,
	}
	require.NoError(t, f.db.Create(&shift).Error)
	return shift
}

func (f *orgFixture) reloadShift(t *testing.T, id string) models.Shift {
	t.Helper()

	var shift models.Shift
	require.NoError(t, f.db.Preload("Claims").First(&shift, "id = ?", id).Error)
	return shift
}

type recordingMailer struct {
	messages []mail.Message
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, mail.Message) error {
	return mail.ErrSMTPDisabled
}
