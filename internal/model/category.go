package model

// Category groups widgets and owns the features that may be attached to
// them. Categories are immutable after creation.
type Category struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"size:100;not null"`
	Label string `json:"label" gorm:"size:100;not null"`

	Features []Feature `json:"features,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// Feature is a labeled attribute belonging to exactly one category. A
// widget may only carry features from its own category.
type Feature struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Label      string `json:"label" gorm:"size:100;not null"`
	CategoryID uint   `json:"category_id" gorm:"not null;index"`
}

// CategoryRequest is the creation payload for a category.
type CategoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Label string `json:"label" binding:"required"`
}

// FeatureRequest is the creation payload for a feature.
type FeatureRequest struct {
	Label    string `json:"label" binding:"required"`
	Category uint   `json:"category" binding:"required"`
}
