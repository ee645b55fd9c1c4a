package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a single ledger movement on an account. Negative
// amounts are outflows, positive amounts are inflows.
type Transaction struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AccountID          uuid.UUID       `gorm:"type:uuid;index;not null" json:"account_id"`
	PlaidTransactionID *string         `gorm:"size:255;index" json:"plaid_transaction_id"`
	Date               time.Time       `gorm:"type:date;index;not null" json:"date"`
	Amount             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description        string          `gorm:"size:255;not null" json:"description"`
	CategoryID         *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	MerchantName       *string         `gorm:"size:255" json:"merchant_name"`
	Pending            bool            `gorm:"not null;default:false" json:"pending"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TransactionFilter is the structured filter set for transaction
// listing. Every field is optional and any combination is valid; a nil
// field imposes no constraint.
type TransactionFilter struct {
	AccountID     *uuid.UUID
	CategoryID    *uuid.UUID
	Uncategorized bool
	StartDate     *time.Time
	EndDate       *time.Time
}

// Scope applies the filter's predicates to a query. Ownership scoping
// is not part of the filter; callers add it separately.
func (f TransactionFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.AccountID != nil {
			db = db.Where("transactions.account_id = ?", *f.AccountID)
		}
		if f.CategoryID != nil {
			db = db.Where("transactions.category_id = ?", *f.CategoryID)
		}
		if f.Uncategorized {
			db = db.Where("transactions.category_id IS NULL")
		}
		if f.StartDate != nil {
			db = db.Where("transactions.date >= ?", *f.StartDate)
		}
		if f.EndDate != nil {
			db = db.Where("transactions.date <= ?", *f.EndDate)
		}
		return db
	}
}
