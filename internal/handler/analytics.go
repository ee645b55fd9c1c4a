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

// AnalyticsHandler serves read-only aggregations over the caller's
// accounts. Every query is joined through account ownership.
type AnalyticsHandler struct {
	DB *gorm.DB
}

func NewAnalyticsHandler(db *gorm.DB) *AnalyticsHandler {
	return &AnalyticsHandler{DB: db}
}

// sumOutflow totals the absolute outflow for one user in a date range
// (inclusive both ends), optionally narrowed to a category.
func sumOutflow(db *gorm.DB, userID uuid.UUID, categoryID *uuid.UUID, start, end time.Time) (decimal.Decimal, error) {
	q := db.Table("transactions").
		Select("COALESCE(SUM(ABS(transactions.amount)), 0)").
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ? AND transactions.date >= ? AND transactions.date <= ? AND transactions.amount < 0",
			userID, start, end)
	if categoryID != nil {
		q = q.Where("transactions.category_id = ?", *categoryID)
	}

	var total decimal.Decimal
	if err := q.Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// parseDateRange reads the required start_date/end_date query params.
func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	start, err := util.ParseDate(c.Query("start_date"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := util.ParseDate(c.Query("end_date"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

type accountBalance struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
}

type netWorthResp struct {
	Total    decimal.Decimal  `json:"total"`
	Accounts []accountBalance `json:"accounts"`
}

// NetWorth sums balances across all of the caller's accounts and
// returns the per-account breakdown.
func (h *AnalyticsHandler) NetWorth(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var accounts []models.Account
	if err := h.DB.Where("user_id = ?", user.ID).Find(&accounts).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	total := decimal.Zero
	balances := make([]accountBalance, 0, len(accounts))
	for _, a := range accounts {
		total = total.Add(a.Balance)
		balances = append(balances, accountBalance{
			AccountID:   a.ID,
			AccountName: a.AccountName,
			Balance:     a.Balance,
		})
	}

	c.JSON(http.StatusOK, netWorthResp{Total: total, Accounts: balances})
}

type categorySpending struct {
	CategoryID   *uuid.UUID      `json:"category_id"`
	CategoryName *string         `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Percentage   float64         `json:"percentage"`
}

// SpendingByCategory groups outflow in range by category (nullable:
// uncategorized spend is its own group), ordered by descending total.
// Percentages are zero when there is no outflow in range.
func (h *AnalyticsHandler) SpendingByCategory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	totalSpending, err := sumOutflow(h.DB, user.ID, nil, start, end)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	var rows []categorySpending
	err = h.DB.Table("transactions").
		Select("transactions.category_id AS category_id, categories.name AS category_name, SUM(ABS(transactions.amount)) AS total").
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Joins("LEFT JOIN categories ON categories.id = transactions.category_id").
		Where("accounts.user_id = ? AND transactions.date >= ? AND transactions.date <= ? AND transactions.amount < 0",
			user.ID, start, end).
		Group("transactions.category_id, categories.name").
		Order("total DESC").
		Scan(&rows).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	for i := range rows {
		if totalSpending.IsPositive() {
			rows[i].Percentage, _ = rows[i].Total.Div(totalSpending).
				Mul(decimal.NewFromInt(100)).Float64()
		}
	}
	if rows == nil {
		rows = []categorySpending{}
	}

	c.JSON(http.StatusOK, rows)
}

type timeSeriesRow struct {
	Date   time.Time
	Amount decimal.Decimal
}

// timeSeriesPoint carries the date as a bare YYYY-MM-DD string.
type timeSeriesPoint struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// IncomeOverTime sums inflow per date within range, ascending. Dates
// without matching transactions are omitted.
func (h *AnalyticsHandler) IncomeOverTime(c *gin.Context) {
	h.overTime(c, false)
}

// SpendingOverTime sums absolute outflow per date within range,
// ascending.
func (h *AnalyticsHandler) SpendingOverTime(c *gin.Context) {
	h.overTime(c, true)
}

func (h *AnalyticsHandler) overTime(c *gin.Context, spending bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	start, end, ok := parseDateRange(c)
	if !ok {
		return
	}

	sign := "transactions.amount > 0"
	sum := "SUM(transactions.amount)"
	if spending {
		sign = "transactions.amount < 0"
		sum = "SUM(ABS(transactions.amount))"
	}

	var rows []timeSeriesRow
	err := h.DB.Table("transactions").
		Select("transactions.date AS date, "+sum+" AS amount").
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Where("accounts.user_id = ? AND transactions.date >= ? AND transactions.date <= ? AND "+sign,
			user.ID, start, end).
		Group("transactions.date").
		Order("transactions.date").
		Scan(&rows).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	points := make([]timeSeriesPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, timeSeriesPoint{
			Date:   row.Date.Format("2006-01-02"),
			Amount: row.Amount,
		})
	}

	c.JSON(http.StatusOK, points)
}
