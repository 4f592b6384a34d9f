package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotaiq/rotaiq/internal/authz"
	"github.com/rotaiq/rotaiq/internal/models"
	apperrors "github.com/rotaiq/rotaiq/pkg/errors"
	"github.com/rotaiq/rotaiq/pkg/metrics"
)

var (
	// ErrShiftNotFound indicates the shift does not exist or is out of scope.
	ErrShiftNotFound = apperrors.New("SHIFT_NOT_FOUND", "Shift not found", http.StatusNotFound)
	// ErrClaimNotFound indicates the claim does not exist or is out of scope.
	ErrClaimNotFound = apperrors.New("CLAIM_NOT_FOUND", "Claim not found", http.StatusNotFound)
	// ErrShiftFilled rejects transitions on a shift that already has an assignee
	// or was closed. Concurrent approvers race on this.
	ErrShiftFilled = apperrors.NewConflict("Shift is already filled or closed")
	// ErrClaimResolved rejects arbitration of a claim that is no longer pending.
	ErrClaimResolved = apperrors.NewConflict("Claim has already been resolved")
)

// CreateShiftInput describes a manager's shift posting.
type CreateShiftInput struct {
	BranchID    string
	StartTime   time.Time
	EndTime     time.Time
	Role        string
	Description string
}

// ListShiftsOptions filters the scoped shift listing.
type ListShiftsOptions struct {
	Status string
}

// ShiftOption customises ShiftService behaviour.
type ShiftOption func(*ShiftService)

// WithShiftClock injects a custom clock primarily for testing.
func WithShiftClock(clock func() time.Time) ShiftOption {
	return func(s *ShiftService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ShiftService owns the shift lifecycle: posting, claiming, arbitration and
// direct assignment. Every multi-row transition runs in one transaction with
// the shift row locked.
type ShiftService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewShiftService constructs a ShiftService.
func NewShiftService(db *gorm.DB, opts ...ShiftOption) (*ShiftService, error) {
	if db == nil {
		return nil, errors.New("shift service: db is required")
	}

	service := &ShiftService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Create posts a new open shift on the branch after a scope check.
func (s *ShiftService) Create(ctx context.Context, actor authz.Actor, input CreateShiftInput) (*models.Shift, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Role) == "" {
		return nil, apperrors.NewBadRequest("shift role is required")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, apperrors.NewBadRequest("end time must be after start time")
	}

	var branch models.Branch
	if err := s.db.WithContext(ctx).Preload("Region").First(&branch, "id = ?", input.BranchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("shift service: load branch: %w", err)
	}

	if err := authz.CanManageBranch(actor, &branch); err != nil {
		metrics.AuthzDecisions.WithLabelValues("shift.create", "deny").Inc()
		return nil, err
	}
	metrics.AuthzDecisions.WithLabelValues("shift.create", "allow").Inc()

	shift := &models.Shift{
		BranchID:    branch.ID,
		PostedByID:  actor.UserID,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Role:        strings.TrimSpace(input.Role),
		Status:      models.ShiftOpen,
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.db.WithContext(ctx).Create(shift).Error; err != nil {
		return nil, fmt.Errorf("shift service: create shift: %w", err)
	}

	shift.Branch = &branch
	return shift, nil
}

// List returns shifts visible to the actor, soonest first.
func (s *ShiftService) List(ctx context.Context, actor authz.Actor, opts ListShiftsOptions) ([]models.Shift, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Shift{}).
		Scopes(authz.ShiftsFor(actor)).
		Preload("Branch").Preload("PostedBy").Preload("AssignedTo")

	if status := strings.TrimSpace(opts.Status); status != "" {
		query = query.Where("shifts.status = ?", status)
	}

	var shifts []models.Shift
	if err := query.Order("shifts.start_time ASC").Find(&shifts).Error; err != nil {
		return nil, fmt.Errorf("shift service: list shifts: %w", err)
	}
	return shifts, nil
}

// Mine returns the shifts assigned to the user, soonest first.
func (s *ShiftService) Mine(ctx context.Context, userID string) ([]models.Shift, error) {
	ctx = ensureContext(ctx)

	var shifts []models.Shift
	err := s.db.WithContext(ctx).
		Preload("Branch").
		Where("assigned_to_id = ?", userID).
		Order("start_time ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("shift service: list assigned shifts: %w", err)
	}
	return shifts, nil
}

// Claim registers the actor's interest in the shift. Claiming is idempotent: a
// repeat call returns the existing claim row unchanged.
func (s *ShiftService) Claim(ctx context.Context, actor authz.Actor, shiftID string) (*models.ShiftClaim, error) {
	ctx = ensureContext(ctx)

	var claim models.ShiftClaim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shift, err := lockShift(tx, shiftID)
		if err != nil {
			return err
		}
		if shift.Status.Terminal() {
			return ErrShiftFilled
		}

		if err := authz.CanClaim(actor, shift); err != nil {
			metrics.AuthzDecisions.WithLabelValues("shift.claim", "deny").Inc()
			return err
		}
		metrics.AuthzDecisions.WithLabelValues("shift.claim", "allow").Inc()

		err = tx.First(&claim, "shift_id = ? AND user_id = ?", shift.ID, actor.UserID).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("shift service: find claim: %w", err)
		}

		claim = models.ShiftClaim{
			ShiftID: shift.ID,
			UserID:  actor.UserID,
			Status:  models.ClaimPending,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return fmt.Errorf("shift service: create claim: %w", err)
		}

		if shift.Status == models.ShiftOpen {
			if err := tx.Model(shift).Update("status", models.ShiftClaimed).Error; err != nil {
				return fmt.Errorf("shift service: mark claimed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.ShiftTransitions.WithLabelValues("claim", "failure").Inc()
		return nil, err
	}

	metrics.ShiftTransitions.WithLabelValues("claim", "success").Inc()
	return &claim, nil
}

// ListClaims returns claims visible to the actor, newest first.
func (s *ShiftService) ListClaims(ctx context.Context, actor authz.Actor) ([]models.ShiftClaim, error) {
	ctx = ensureContext(ctx)

	var claims []models.ShiftClaim
	err := s.db.WithContext(ctx).
		Model(&models.ShiftClaim{}).
		Scopes(authz.ClaimsFor(actor)).
		Preload("Shift").Preload("Shift.Branch").Preload("User").
		Order("shift_claims.created_at DESC").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("shift service: list claims: %w", err)
	}
	return claims, nil
}

// ApproveClaim resolves the arbitration in the claimant's favour: the claim is
// approved, every sibling pending claim declined, and the shift filled. The
// first approval wins; a concurrent second approver gets a conflict.
func (s *ShiftService) ApproveClaim(ctx context.Context, actor authz.Actor, claimID string) (*models.ShiftClaim, error) {
	ctx = ensureContext(ctx)

	var claim models.ShiftClaim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return fmt.Errorf("shift service: find claim: %w", err)
		}

		shift, err := lockShift(tx, claim.ShiftID)
		if err != nil {
			return err
		}

		if err := authz.CanArbitrate(actor, shift); err != nil {
			metrics.AuthzDecisions.WithLabelValues("claim.approve", "deny").Inc()
			return err
		}
		metrics.AuthzDecisions.WithLabelValues("claim.approve", "allow").Inc()

		// Every claim write happens under the shift lock, so a locking re-read
		// here sees any resolution that committed while we waited for it.
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&claim, "id = ?", claimID).Error
		if err != nil {
			return fmt.Errorf("shift service: reload claim: %w", err)
		}
		if claim.Status != models.ClaimPending {
			return ErrClaimResolved
		}
		if shift.Status.Terminal() {
			return ErrShiftFilled
		}

		if err := tx.Model(&claim).Update("status", models.ClaimApproved).Error; err != nil {
			return fmt.Errorf("shift service: approve claim: %w", err)
		}
		err = tx.Model(&models.ShiftClaim{}).
			Where("shift_id = ? AND id <> ? AND status = ?", shift.ID, claim.ID, models.ClaimPending).
			Update("status", models.ClaimDeclined).Error
		if err != nil {
			return fmt.Errorf("shift service: decline sibling claims: %w", err)
		}

		updates := map[string]any{
			"assigned_to_id": claim.UserID,
			"status":         models.ShiftFilled,
		}
		if err := tx.Model(shift).Updates(updates).Error; err != nil {
			return fmt.Errorf("shift service: fill shift: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.ShiftTransitions.WithLabelValues("approve", "failure").Inc()
		return nil, err
	}

	metrics.ShiftTransitions.WithLabelValues("approve", "success").Inc()
	return &claim, nil
}

// DeclineClaim rejects a pending claim. When it was the shift's last pending
// claim the shift reverts to open so others can still pick it up.
func (s *ShiftService) DeclineClaim(ctx context.Context, actor authz.Actor, claimID string) (*models.ShiftClaim, error) {
	ctx = ensureContext(ctx)

	var claim models.ShiftClaim
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&claim, "id = ?", claimID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClaimNotFound
			}
			return fmt.Errorf("shift service: find claim: %w", err)
		}

		shift, err := lockShift(tx, claim.ShiftID)
		if err != nil {
			return err
		}

		if err := authz.CanArbitrate(actor, shift); err != nil {
			metrics.AuthzDecisions.WithLabelValues("claim.decline", "deny").Inc()
			return err
		}
		metrics.AuthzDecisions.WithLabelValues("claim.decline", "allow").Inc()

		// Re-read under the shift lock; see ApproveClaim.
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&claim, "id = ?", claimID).Error
		if err != nil {
			return fmt.Errorf("shift service: reload claim: %w", err)
		}
		if claim.Status != models.ClaimPending {
			return ErrClaimResolved
		}

		if err := tx.Model(&claim).Update("status", models.ClaimDeclined).Error; err != nil {
			return fmt.Errorf("shift service: decline claim: %w", err)
		}

		var pending int64
		err = tx.Model(&models.ShiftClaim{}).
			Where("shift_id = ? AND status = ?", shift.ID, models.ClaimPending).
			Count(&pending).Error
		if err != nil {
			return fmt.Errorf("shift service: count pending claims: %w", err)
		}

		if pending == 0 && shift.Status == models.ShiftClaimed {
			updates := map[string]any{
				"assigned_to_id": nil,
				"status":         models.ShiftOpen,
			}
			if err := tx.Model(shift).Updates(updates).Error; err != nil {
				return fmt.Errorf("shift service: reopen shift: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		metrics.ShiftTransitions.WithLabelValues("decline", "failure").Inc()
		return nil, err
	}

	metrics.ShiftTransitions.WithLabelValues("decline", "success").Inc()
	return &claim, nil
}

// AssignStaff fills the shift directly, bypassing arbitration. Any pending
// claims are declined. The staff member must be claim-eligible for the branch.
func (s *ShiftService) AssignStaff(ctx context.Context, actor authz.Actor, shiftID, userID string) (*models.Shift, error) {
	ctx = ensureContext(ctx)

	var assigned *models.Shift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		shift, err := lockShift(tx, shiftID)
		if err != nil {
			return err
		}

		if err := authz.CanManageBranch(actor, shift.Branch); err != nil {
			metrics.AuthzDecisions.WithLabelValues("shift.assign", "deny").Inc()
			return err
		}
		metrics.AuthzDecisions.WithLabelValues("shift.assign", "allow").Inc()

		if shift.Status.Terminal() {
			return ErrShiftFilled
		}

		var staff models.User
		if err := tx.Preload("Branch").First(&staff, "id = ?", userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("shift service: load staff: %w", err)
		}
		if err := authz.CanClaim(authz.ActorFromUser(&staff), shift); err != nil {
			return apperrors.NewBadRequest("staff member is not eligible for this shift")
		}

		err = tx.Model(&models.ShiftClaim{}).
			Where("shift_id = ? AND status = ?", shift.ID, models.ClaimPending).
			Update("status", models.ClaimDeclined).Error
		if err != nil {
			return fmt.Errorf("shift service: decline pending claims: %w", err)
		}

		updates := map[string]any{
			"assigned_to_id": staff.ID,
			"status":         models.ShiftFilled,
		}
		if err := tx.Model(shift).Updates(updates).Error; err != nil {
			return fmt.Errorf("shift service: assign shift: %w", err)
		}

		shift.AssignedToID = &staff.ID
		shift.AssignedTo = &staff
		shift.Status = models.ShiftFilled
		assigned = shift
		return nil
	})
	if err != nil {
		metrics.ShiftTransitions.WithLabelValues("assign", "failure").Inc()
		return nil, err
	}

	metrics.ShiftTransitions.WithLabelValues("assign", "success").Inc()
	return assigned, nil
}

// CloseExpired closes open and claimed shifts whose end time has passed and
// declines their remaining pending claims. Returns the number of shifts closed.
func (s *ShiftService) CloseExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	now := s.now()
	var closed int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []models.Shift
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status IN ? AND end_time < ?", []models.ShiftStatus{models.ShiftOpen, models.ShiftClaimed}, now).
			Find(&expired).Error
		if err != nil {
			return fmt.Errorf("shift service: find expired shifts: %w", err)
		}
		if len(expired) == 0 {
			return nil
		}

		ids := make([]string, len(expired))
		for i, shift := range expired {
			ids[i] = shift.ID
		}

		err = tx.Model(&models.ShiftClaim{}).
			Where("shift_id IN ? AND status = ?", ids, models.ClaimPending).
			Update("status", models.ClaimDeclined).Error
		if err != nil {
			return fmt.Errorf("shift service: decline stale claims: %w", err)
		}

		result := tx.Model(&models.Shift{}).
			Where("id IN ?", ids).
			Update("status", models.ShiftClosed)
		if result.Error != nil {
			return fmt.Errorf("shift service: close shifts: %w", result.Error)
		}
		closed = result.RowsAffected
		return nil
	})
	if err != nil {
		metrics.ShiftTransitions.WithLabelValues("close", "failure").Inc()
		return 0, err
	}

	if closed > 0 {
		metrics.ShiftTransitions.WithLabelValues("close", "success").Add(float64(closed))
	}
	return closed, nil
}

// lockShift loads the shift row under SELECT ... FOR UPDATE with its branch and
// region attached for scope checks.
func lockShift(tx *gorm.DB, shiftID string) (*models.Shift, error) {
	var shift models.Shift
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&shift, "id = ?", shiftID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("shift service: lock shift: %w", err)
	}

	var branch models.Branch
	if err := tx.Preload("Region").First(&branch, "id = ?", shift.BranchID).Error; err != nil {
		return nil, fmt.Errorf("shift service: load shift branch: %w", err)
	}
	shift.Branch = &branch
	return &shift, nil
}
