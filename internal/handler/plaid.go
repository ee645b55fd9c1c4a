package handler

import (
	"errors"
	"net/http"
	"time"

	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/plaid"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// syncWindowDays is the trailing window pulled from the provider on
// each sync.
const syncWindowDays = 30

// PlaidHandler links bank accounts through the aggregation provider
// and imports their transactions. Access tokens are encrypted with
// EncryptionKey before they reach the store.
type PlaidHandler struct {
	DB            *gorm.DB
	Client        *plaid.Client
	EncryptionKey string
}

func NewPlaidHandler(db *gorm.DB, client *plaid.Client, encryptionKey string) *PlaidHandler {
	return &PlaidHandler{DB: db, Client: client, EncryptionKey: encryptionKey}
}

func (h *PlaidHandler) clientError(c *gin.Context, err error) {
	if errors.Is(err, plaid.ErrNotConfigured) {
		util.Error(c, http.StatusInternalServerError, "Bank aggregation is not configured")
		return
	}
	util.Error(c, http.StatusInternalServerError, err.Error())
}

// LinkToken starts the linking handshake for the caller.
func (h *PlaidHandler) LinkToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.Client.CreateLinkToken(c.Request.Context(), user.ID.String())
	if err != nil {
		h.clientError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link_token": token})
}

type exchangeTokenReq struct {
	PublicToken string `json:"public_token" binding:"required"`
}

// ExchangeToken trades the public token from the link flow for an
// access token, stores the item, and creates one local account per
// provider account.
func (h *PlaidHandler) ExchangeToken(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req exchangeTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	accessToken, itemID, err := h.Client.ExchangePublicToken(ctx, req.PublicToken)
	if err != nil {
		h.clientError(c, err)
		return
	}

	itemInfo, err := h.Client.GetItem(ctx, accessToken)
	if err != nil {
		h.clientError(c, err)
		return
	}

	stored, err := util.EncryptToken(h.EncryptionKey, accessToken)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to store access token")
		return
	}

	item := models.PlaidItem{
		UserID:          user.ID,
		AccessToken:     stored,
		PlaidItemID:     itemID,
		InstitutionID:   itemInfo.InstitutionID,
		InstitutionName: itemInfo.InstitutionName,
	}
	if err := h.DB.Create(&item).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to link item")
		return
	}

	accounts, err := h.Client.GetAccounts(ctx, accessToken)
	if err != nil {
		h.clientError(c, err)
		return
	}

	now := time.Now().UTC()
	linked := 0
	for _, a := range accounts {
		plaidAccountID := a.AccountID
		plaidItemID := itemID
		account := models.Account{
			UserID:         user.ID,
			PlaidAccountID: &plaidAccountID,
			PlaidItemID:    &plaidItemID,
			AccountName:    a.Name,
			AccountType:    a.AccountType,
			Balance:        a.Balance,
			Currency:       "USD",
			LastSynced:     &now,
		}
		if err := h.DB.Create(&account).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Failed to create linked account")
			return
		}
		linked++
	}

	c.JSON(http.StatusOK, gin.H{
		"item_id":         item.ID,
		"accounts_linked": linked,
	})
}

// Sync pulls the trailing transaction window for every linked item and
// imports the rows not yet seen. Provider amounts arrive with outflows
// positive, so they are negated on import.
func (h *PlaidHandler) Sync(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var items []models.PlaidItem
	if err := h.DB.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	ctx := c.Request.Context()
	imported := 0
	for _, item := range items {
		accessToken, err := util.DecryptToken(h.EncryptionKey, item.AccessToken)
		if err != nil {
			util.Error(c, http.StatusInternalServerError, "Failed to read access token")
			return
		}

		transactions, err := h.Client.GetTransactions(ctx, accessToken, syncWindowDays)
		if err != nil {
			h.clientError(c, err)
			return
		}

		var accounts []models.Account
		if err := h.DB.Where("user_id = ? AND plaid_item_id = ?", user.ID, item.PlaidItemID).
			Find(&accounts).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Database error")
			return
		}
		byProviderID := make(map[string]*models.Account, len(accounts))
		for i := range accounts {
			if accounts[i].PlaidAccountID != nil {
				byProviderID[*accounts[i].PlaidAccountID] = &accounts[i]
			}
		}

		for _, t := range transactions {
			account, ok := byProviderID[t.AccountID]
			if !ok {
				continue
			}

			var count int64
			if err := h.DB.Model(&models.Transaction{}).
				Where("plaid_transaction_id = ?", t.TransactionID).
				Count(&count).Error; err != nil {
				util.Error(c, http.StatusInternalServerError, "Database error")
				return
			}
			if count > 0 {
				continue
			}

			providerID := t.TransactionID
			transaction := models.Transaction{
				AccountID:          account.ID,
				PlaidTransactionID: &providerID,
				Date:               t.Date,
				Amount:             t.Amount.Neg(),
				Description:        t.Name,
				MerchantName:       t.MerchantName,
				Pending:            t.Pending,
			}
			if err := h.DB.Create(&transaction).Error; err != nil {
				util.Error(c, http.StatusInternalServerError, "Failed to import transaction")
				return
			}
			imported++
		}

		now := time.Now().UTC()
		if err := h.DB.Model(&models.Account{}).
			Where("user_id = ? AND plaid_item_id = ?", user.ID, item.PlaidItemID).
			Update("last_synced", now).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Database error")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"transactions_imported": imported})
}
