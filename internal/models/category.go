package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category classifies transactions. Default categories (user_id NULL,
// is_default true) are shared read-only fixtures visible to every
// user; user categories are private to their owner.
type Category struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Name         string     `gorm:"size:64;not null" json:"name"`
	CategoryType string     `gorm:"size:16;not null" json:"category_type"` // income / expense
	Color        string     `gorm:"size:16;not null" json:"color"`
	Icon         *string    `gorm:"size:64" json:"icon"`
	IsDefault    bool       `gorm:"not null;default:false" json:"is_default"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
