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

// BudgetHandler serves budgets and their performance numbers.
type BudgetHandler struct {
	DB *gorm.DB
}

func NewBudgetHandler(db *gorm.DB) *BudgetHandler {
	return &BudgetHandler{DB: db}
}

func (h *BudgetHandler) List(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var budgets []models.Budget
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("start_date DESC").
		Find(&budgets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, budgets)
}

func (h *BudgetHandler) owned(userID, id uuid.UUID) (*models.Budget, error) {
	var budget models.Budget
	err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (h *BudgetHandler) Get(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid budget id")
		return
	}

	budget, err := h.owned(user.ID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	c.JSON(http.StatusOK, budget)
}

type createBudgetReq struct {
	CategoryID uuid.UUID       `json:"category_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period" binding:"required"`
	StartDate  string          `json:"start_date" binding:"required"`
	EndDate    *string         `json:"end_date"`
}

func (h *BudgetHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req createBudgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	startDate, err := util.ParseDate(req.StartDate)
	if err != nil {
		util.Error(c, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	var endDate *time.Time
	if req.EndDate != nil {
		t, err := util.ParseDate(*req.EndDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		endDate = &t
	}

	// The target category must be visible to the caller.
	var count int64
	if err := h.DB.Model(&models.Category{}).
		Where("id = ? AND (user_id = ? OR is_default = ?)", req.CategoryID, user.ID, true).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}
	if count == 0 {
		util.Error(c, http.StatusBadRequest, "Invalid category")
		return
	}

	budget := models.Budget{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Period:     req.Period,
		StartDate:  startDate,
		EndDate:    endDate,
	}
	if err := h.DB.Create(&budget).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to create budget")
		return
	}

	c.JSON(http.StatusOK, budget)
}

type updateBudgetReq struct {
	Amount  *decimal.Decimal `json:"amount"`
	EndDate *string          `json:"end_date"`
}

// Update changes amount and/or end date, leaving unspecified fields
// untouched. Ownership is checked first and the field updates share
// one store transaction.
func (h *BudgetHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid budget id")
		return
	}

	var req updateBudgetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		t, err := util.ParseDate(*req.EndDate)
		if err != nil {
			util.Error(c, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		endDate = &t
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
		if req.Amount != nil {
			if err := tx.Model(&models.Budget{}).Where("id = ?", id).
				Update("amount", *req.Amount).Error; err != nil {
				return err
			}
		}
		if endDate != nil {
			if err := tx.Model(&models.Budget{}).Where("id = ?", id).
				Update("end_date", *endDate).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to update budget")
		return
	}

	var budget models.Budget
	if err := h.DB.First(&budget, "id = ?", id).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, budget)
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid budget id")
		return
	}

	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).
		Delete(&models.Budget{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Failed to delete budget")
		return
	}

	c.Status(http.StatusNoContent)
}

type budgetPerformanceResp struct {
	Budget     models.Budget   `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

// Performance sums the absolute outflow in the budget's category from
// its start date to its end date (or today when open-ended).
func (h *BudgetHandler) Performance(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		util.Error(c, http.StatusBadRequest, "Invalid budget id")
		return
	}

	budget, err := h.owned(user.ID, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Not found")
		} else {
			util.Error(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	endDate := time.Now().UTC()
	if budget.EndDate != nil {
		endDate = *budget.EndDate
	}

	spent, err := sumOutflow(h.DB, user.ID, &budget.CategoryID, budget.StartDate, endDate)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Database error")
		return
	}

	remaining := budget.Amount.Sub(spent)
	percentage := 0.0
	if budget.Amount.IsPositive() {
		percentage, _ = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Float64()
	}

	c.JSON(http.StatusOK, budgetPerformanceResp{
		Budget:     *budget,
		Spent:      spent,
		Remaining:  remaining,
		Percentage: percentage,
	})
}
