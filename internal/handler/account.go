package handler

import (
	"net/http"

	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountHandler serves the caller's financial accounts.
type AccountHandler struct {
	DB *gorm.DB
}

func NewAccountHandler(db *gorm.DB) *AccountHandler {
	return &AccountHandler{DB: db}
}

func (h *AccountHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, accounts)
}

func (h *AccountHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid account id")
		return
	}

	var account models.Account
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, account)
}

type createAccountReq struct {
	AccountName string           `json:"account_name" binding:"required"`
	AccountType string           `json:"account_type" binding:"required"`
	Balance     *decimal.Decimal `json:"balance"`
	Currency    string           `json:"currency"`
}

// Create adds a manual account not linked to the aggregation provider.
func (h *AccountHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createAccountReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	balance := decimal.Zero
	if req.Balance != nil {
		balance = *req.Balance
	}
	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	account := models.Account{
		UserID:      user.ID,
		AccountName: req.AccountName,
		AccountType: req.AccountType,
		Balance:     balance,
		Currency:    currency,
	}
	if err := h.DB.Create(&account).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	c.JSON(http.StatusOK, account)
}

// Delete is idempotent: removing an absent or foreign account is a
// silent no-op.
func (h *AccountHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid account id")
		return
	}

	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		Delete(&models.Account{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete account")
		return
	}

	c.Status(http.StatusNoContent)
}
