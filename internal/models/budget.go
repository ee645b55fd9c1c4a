package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Budget caps spending in one category over a period. EndDate nil
// means the budget is open-ended.
type Budget struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	CategoryID uuid.UUID       `gorm:"type:uuid;index;not null" json:"category_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Period     string          `gorm:"size:32;not null" json:"period"`
	StartDate  time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate    *time.Time      `gorm:"type:date" json:"end_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
