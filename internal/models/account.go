package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Account is a financial account owned by exactly one user. Accounts
// imported from the aggregation provider carry the provider's account
// and item identifiers; manually created accounts leave them nil.
type Account struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	PlaidAccountID *string         `gorm:"size:255;index" json:"plaid_account_id"`
	PlaidItemID    *string         `gorm:"size:255" json:"plaid_item_id"`
	AccountName    string          `gorm:"size:128;not null" json:"account_name"`
	AccountType    string          `gorm:"size:32;not null" json:"account_type"`
	Balance        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance"`
	Currency       string          `gorm:"size:8;not null;default:USD" json:"currency"`
	LastSynced     *time.Time      `json:"last_synced"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
