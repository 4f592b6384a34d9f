package models

// Invitation is a single-use onboarding credential issued by a manager. Rows are
// never deleted; redeemed invitations stay behind as an audit record.
type Invitation struct {
	BaseModel

	Token string `gorm:"uniqueIndex;not null" json:"token"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	BranchID string  `gorm:"type:uuid;not null;index" json:"branch_id"`
	Branch   *Branch `gorm:"constraint:OnDelete:CASCADE" json:"branch,omitempty"`

	Role Role `gorm:"type:varchar(32);not null;default:'employee'" json:"role"`

	InvitedByID *string `gorm:"type:uuid" json:"invited_by_id,omitempty"`
	InvitedBy   *User   `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`

	IsUsed bool `gorm:"default:false;index" json:"is_used"`
}
