package handler

import (
	"net/http"
	"time"

	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionHandler serves transaction CRUD with the optional filter
// set on listing.
type TransactionHandler struct {
	DB *gorm.DB
}

func NewTransactionHandler(db *gorm.DB) *TransactionHandler {
	return &TransactionHandler{DB: db}
}

// ownedAccounts is the subquery used to scope transaction statements
// to the caller's accounts.
func (h *TransactionHandler) ownedAccounts(userID uuid.UUID) *gorm.DB {
	return h.DB.Model(&models.Account{}).Select("id").Where("user_id = ?", userID)
}

// owned resolves a transaction through its account's owner. Foreign or
// absent rows both come back as gorm.ErrRecordNotFound.
func (h *TransactionHandler) owned(userID, id uuid.UUID) (*models.Transaction, error) {
	var t models.Transaction
	err := h.DB.
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("transactions.id = ? AND accounts.user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseFilter builds the structured filter from query parameters.
func parseFilter(c *gin.Context) (models.TransactionFilter, error) {
	var f models.TransactionFilter

	if s := c.Query("account_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, err
		}
		f.AccountID = &id
	}
	if s := c.Query("category_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			return f, err
		}
		f.CategoryID = &id
	}
	f.Uncategorized = c.Query("uncategorized") == "true"
	if s := c.Query("start_date"); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			return f, err
		}
		f.StartDate = &t
	}
	if s := c.Query("end_date"); s != "" {
		t, err := util.ParseDate(s)
		if err != nil {
			return f, err
		}
		f.EndDate = &t
	}
	return f, nil
}

func (h *TransactionHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid filter parameters")
		return
	}

	var transactions []models.Transaction
	err = h.DB.
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", user.ID).
		Scopes(filter.Scope()).
		Order("transactions.date DESC, transactions.created_at DESC").
		Find(&transactions).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	transaction, err := h.owned(user.ID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, transaction)
}

type createTransactionReq struct {
	AccountID    uuid.UUID       `json:"account_id" binding:"required"`
	Date         string          `json:"date" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description" binding:"required"`
	CategoryID   *uuid.UUID      `json:"category_id"`
	MerchantName *string         `json:"merchant_name"`
}

func (h *TransactionHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := util.ParseDate(req.Date)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	// The target account must belong to the caller.
	var count int64
	if err := h.DB.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", req.AccountID, user.ID).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if count == 0 {
		util.Error(c, http.StatusBadRequest, "Invalid account")
		return
	}

	transaction := models.Transaction{
		AccountID:    req.AccountID,
		Date:         date,
		Amount:       req.Amount,
		Description:  req.Description,
		CategoryID:   req.CategoryID,
		MerchantName: req.MerchantName,
		Pending:      false,
	}
	if err := h.DB.Create(&transaction).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

type updateTransactionReq struct {
	CategoryID  *uuid.UUID       `json:"category_id"`
	Description *string          `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

// Update changes category, description and/or amount. Ownership is
// checked before mutating, and the field updates run inside one store
// transaction so a failure cannot leave a partial write behind.
func (h *TransactionHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req updateTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if _, err := h.owned(user.ID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if req.CategoryID != nil {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", id).
				Updates(map[string]interface{}{"category_id": *req.CategoryID, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		if req.Description != nil {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", id).
				Updates(map[string]interface{}{"description": *req.Description, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		if req.Amount != nil {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", id).
				Updates(map[string]interface{}{"amount": *req.Amount, "updated_at": now}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	var transaction models.Transaction
	if err := h.DB.First(&transaction, "id = ?", id).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Delete is idempotent and scoped through account ownership.
func (h *TransactionHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	if err := h.DB.
		Where("id = ? AND account_id IN (?)", id, h.ownedAccounts(user.ID)).
		Delete(&models.Transaction{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	c.Status(http.StatusNoContent)
}
