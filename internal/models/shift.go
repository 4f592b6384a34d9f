package models

import "time"

// ShiftStatus enumerates the shift lifecycle: open -> claimed -> filled, with
// closed as the administrative terminal state for expired or withdrawn shifts.
type ShiftStatus string

const (
	ShiftOpen    ShiftStatus = "open"
	ShiftClaimed ShiftStatus = "claimed"
	ShiftFilled  ShiftStatus = "filled"
	ShiftClosed  ShiftStatus = "closed"
)

// Terminal reports whether no further transitions are allowed from the status.
func (s ShiftStatus) Terminal() bool {
	return s == ShiftFilled || s == ShiftClosed
}

// Shift is a rota gap posted by a manager that employees can claim.
type Shift struct {
	BaseModel

	BranchID string  `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch   *Branch `gorm:"constraint:OnDelete:CASCADE" json:"branch,omitempty"`

	// PostedByID is immutable after creation.
	PostedByID string `gorm:"type:uuid;not null" json:"posted_by_id"`
	PostedBy   *User  `gorm:"foreignKey:PostedByID;constraint:OnDelete:CASCADE" json:"posted_by,omitempty"`

	AssignedToID *string `gorm:"type:uuid;index" json:"assigned_to_id,omitempty"`
	AssignedTo   *User   `gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL" json:"assigned_to,omitempty"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	// Role is the free-text job title the shift calls for, e.g. "Cashier".
	Role        string      `gorm:"not null" json:"role"`
	Status      ShiftStatus `gorm:"type:varchar(16);not null;default:'open';index" json:"status"`
	Description string      `json:"description"`

	Claims []ShiftClaim `gorm:"foreignKey:ShiftID" json:"claims,omitempty"`
}
