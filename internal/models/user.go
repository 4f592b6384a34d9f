package models

// User is the authenticated principal. Email is the login identifier.
type User struct {
	BaseModel

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar,omitempty"`

	Role Role `gorm:"type:varchar(32);not null;default:'employee';index" json:"role"`

	BranchID *string `gorm:"type:uuid;index" json:"branch_id,omitempty"`
	Branch   *Branch `gorm:"constraint:OnDelete:SET NULL" json:"branch,omitempty"`

	// RegionID is set explicitly for region managers; every other role derives
	// its region from the branch.
	RegionID *string `gorm:"type:uuid;index" json:"region_id,omitempty"`
	Region   *Region `gorm:"constraint:OnDelete:SET NULL" json:"region,omitempty"`

	IsStaff  bool `gorm:"default:false" json:"is_staff"`
	IsActive bool `gorm:"default:true" json:"is_active"`
}

// BranchRegionID returns the region the user's branch belongs to, if any.
func (u *User) BranchRegionID() *string {
	if u == nil || u.Branch == nil {
		return nil
	}
	return u.Branch.RegionID
}

// FullName joins the user's names for display and email salutations.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
