package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaidItem is a linked institution at the aggregation provider.
// AccessToken is stored AES-encrypted when an encryption key is
// configured and is never serialized.
type PlaidItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AccessToken     string    `gorm:"size:512;not null" json:"-"`
	PlaidItemID     string    `gorm:"size:255;not null" json:"plaid_item_id"`
	InstitutionID   string    `gorm:"size:255" json:"institution_id"`
	InstitutionName string    `gorm:"size:255" json:"institution_name"`
	Status          string    `gorm:"size:32;not null;default:active" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p *PlaidItem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
