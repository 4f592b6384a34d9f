package models

// Region is the top of the organisational hierarchy. Branches may be regionless.
type Region struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	Branches []Branch `gorm:"foreignKey:RegionID" json:"branches,omitempty"`
}
