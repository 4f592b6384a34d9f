package models

// ClaimStatus enumerates the arbitration states of a shift claim.
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimDeclined ClaimStatus = "declined"
)

// ShiftClaim records an employee's request to work a shift. At most one row
// exists per (shift, user); creation is get-or-create.
type ShiftClaim struct {
	BaseModel

	ShiftID string `gorm:"type:uuid;not null;uniqueIndex:idx_shift_claims_shift_user" json:"shift_id"`
	Shift   *Shift `gorm:"constraint:OnDelete:CASCADE" json:"shift,omitempty"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_shift_claims_shift_user" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`

	Status ClaimStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
}
