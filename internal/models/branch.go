package models

// Branch represents a business location. Users and shifts are owned by a branch.
type Branch struct {
	BaseModel

	Name     string  `gorm:"uniqueIndex;not null" json:"name"`
	Address  string  `json:"address"`
	RegionID *string `gorm:"type:uuid;index" json:"region_id,omitempty"`
	Region   *Region `gorm:"constraint:OnDelete:SET NULL" json:"region,omitempty"`

	Staff  []User  `gorm:"foreignKey:BranchID" json:"staff,omitempty"`
	Shifts []Shift `gorm:"foreignKey:BranchID" json:"-"`
}
