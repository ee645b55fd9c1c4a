package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/middleware"
	"fintrack/internal/models"
	"fintrack/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var exportHeader = []string{"Date", "Description", "Merchant", "Category", "Amount", "Currency", "Account", "Pending"}

// ExportHandler writes the caller's transaction history as a CSV or
// XLSX download. The transaction listing filters apply, so a client
// can export one account or one date range.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

type exportRow struct {
	transaction models.Transaction
	accountName string
	currency    string
}

func (h *ExportHandler) rows(c *gin.Context, userID uuid.UUID) ([]exportRow, map[uuid.UUID]string, bool) {
	filter, err := parseFilter(c)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid filter parameters")
		return nil, nil, false
	}

	var transactions []models.Transaction
	err = h.DB.
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ?", userID).
		Scopes(filter.Scope()).
		Order("transactions.date DESC, transactions.created_at DESC").
		Find(&transactions).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return nil, nil, false
	}

	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return nil, nil, false
	}
	accountByID := make(map[uuid.UUID]models.Account, len(accounts))
	for _, a := range accounts {
		accountByID[a.ID] = a
	}

	var categories []models.Category
	if err := h.DB.Where("user_id = ? OR is_default = ?", userID, true).
		Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return nil, nil, false
	}
	categoryNames := make(map[uuid.UUID]string, len(categories))
	for _, cat := range categories {
		categoryNames[cat.ID] = cat.Name
	}

	rows := make([]exportRow, 0, len(transactions))
	for _, t := range transactions {
		account := accountByID[t.AccountID]
		rows = append(rows, exportRow{
			transaction: t,
			accountName: account.AccountName,
			currency:    account.Currency,
		})
	}
	return rows, categoryNames, true
}

func (r exportRow) cells(categoryNames map[uuid.UUID]string) []string {
	t := r.transaction
	category := ""
	if t.CategoryID != nil {
		category = categoryNames[*t.CategoryID]
	}
	merchant := ""
	if t.MerchantName != nil {
		merchant = *t.MerchantName
	}
	pending := "no"
	if t.Pending {
		pending = "yes"
	}
	return []string{
		t.Date.Format("2006-01-02"),
		t.Description,
		merchant,
		category,
		t.Amount.StringFixed(2),
		r.currency,
		r.accountName,
		pending,
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("transactions_%s.%s", time.Now().UTC().Format("20060102"), ext)
}

func (h *ExportHandler) CSV(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rows, categoryNames, ok := h.rows(c, user.ID)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename("csv")))

	w := csv.NewWriter(c.Writer)
	if err := w.Write(exportHeader); err != nil {
		return
	}
	for _, r := range rows {
		if err := w.Write(r.cells(categoryNames)); err != nil {
			return
		}
	}
	w.Flush()
}

func (h *ExportHandler) XLSX(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rows, categoryNames, ok := h.rows(c, user.ID)
	if !ok {
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transactions"
	f.SetSheetName("Sheet1", sheet)

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to build export")
		return
	}
	for i, r := range rows {
		cells := r.cells(categoryNames)
		values := make([]interface{}, len(cells))
		for j, v := range cells {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			util.Error(c, http.StatusInternalServerError, "Failed to build export")
			return
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", exportFilename("xlsx")))
	if err := f.Write(c.Writer); err != nil {
		return
	}
}
