package handler_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type budgetResp struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
}

type performanceResp struct {
	Budget     budgetResp      `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage float64         `json:"percentage"`
}

func createBudget(t *testing.T, r *gin.Engine, token, categoryID, amount, start string, end *string) budgetResp {
	t.Helper()

	body := gin.H{
		"category_id": categoryID,
		"amount":      amount,
		"period":      "monthly",
		"start_date":  start,
	}
	if end != nil {
		body["end_date"] = *end
	}
	w := doRequest(t, r, http.MethodPost, "/api/budgets", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("create budget: status %d body %s", w.Code, w.Body.String())
	}
	var budget budgetResp
	decode(t, w, &budget)
	return budget
}

func TestBudgetCreateRejectsInvisibleCategory(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/budgets", token, gin.H{
		"category_id": uuid.NewString(),
		"amount":      "100.00",
		"period":      "monthly",
		"start_date":  "2026-02-01",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status %d, want 400", w.Code)
	}
}

func TestBudgetPerformance(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice@example.com")
	accountID := createAccount(t, r, token, "Checking", "1000.00")
	groceries := defaultCategoryID(t, r, token, "Groceries")

	end := "2026-02-28"
	budget := createBudget(t, r, token, groceries, "500.00", "2026-02-01", &end)

	createTransaction(t, r, token, accountID, "2026-02-05", "-120.00", "Shop one", gin.H{"category_id": groceries})
	createTransaction(t, r, token, accountID, "2026-02-15", "-180.00", "Shop two", gin.H{"category_id": groceries})
	// Inflows and other categories do not count against the budget.
	createTransaction(t, r, token, accountID, "2026-02-10", "40.00", "Refund", gin.H{"category_id": groceries})
	createTransaction(t, r, token, accountID, "2026-02-12", "-60.00", "Unrelated", nil)
	// Outside the budget window.
	createTransaction(t, r, token, accountID, "2026-03-05", "-75.00", "March shop", gin.H{"category_id": groceries})

	w := doRequest(t, r, http.MethodGet, "/api/budgets/"+budget.ID+"/performance", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("performance: status %d body %s", w.Code, w.Body.String())
	}

	var perf performanceResp
	decode(t, w, &perf)
	if !perf.Spent.Equal(decimal.RequireFromString("300")) {
		t.Errorf("spent = %s, want 300", perf.Spent)
	}
	if !perf.Remaining.Equal(decimal.RequireFromString("200")) {
		t.Errorf("remaining = %s, want 200", perf.Remaining)
	}
	if perf.Percentage < 59.99 || perf.Percentage > 60.01 {
		t.Errorf("percentage = %f, want 60", perf.Percentage)
	}
}

func TestBudgetOverspendGoesNegative(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice@example.com")
	accountID := createAccount(t, r, token, "Checking", "1000.00")
	groceries := defaultCategoryID(t, r, token, "Groceries")

	end := "2026-02-28"
	budget := createBudget(t, r, token, groceries, "100.00", "2026-02-01", &end)
	createTransaction(t, r, token, accountID, "2026-02-05", "-150.00", "Big shop", gin.H{"category_id": groceries})

	w := doRequest(t, r, http.MethodGet, "/api/budgets/"+budget.ID+"/performance", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("performance: status %d body %s", w.Code, w.Body.String())
	}

	var perf performanceResp
	decode(t, w, &perf)
	if !perf.Remaining.Equal(decimal.RequireFromString("-50")) {
		t.Errorf("remaining = %s, want -50", perf.Remaining)
	}
	if perf.Percentage < 149.99 || perf.Percentage > 150.01 {
		t.Errorf("percentage = %f, want 150", perf.Percentage)
	}
}

func TestBudgetZeroAmountPercentage(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice@example.com")
	accountID := createAccount(t, r, token, "Checking", "1000.00")
	groceries := defaultCategoryID(t, r, token, "Groceries")

	end := "2026-02-28"
	budget := createBudget(t, r, token, groceries, "0", "2026-02-01", &end)
	createTransaction(t, r, token, accountID, "2026-02-05", "-10.00", "Shop", gin.H{"category_id": groceries})

	w := doRequest(t, r, http.MethodGet, "/api/budgets/"+budget.ID+"/performance", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("performance: status %d body %s", w.Code, w.Body.String())
	}

	var perf performanceResp
	decode(t, w, &perf)
	if perf.Percentage != 0 {
		t.Errorf("percentage = %f, want 0 for a zero budget", perf.Percentage)
	}
}

func TestBudgetUpdateAndScoping(t *testing.T) {
	r := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")
	groceries := defaultCategoryID(t, r, alice, "Groceries")

	budget := createBudget(t, r, alice, groceries, "100.00", "2026-02-01", nil)

	w := doRequest(t, r, http.MethodPut, "/api/budgets/"+budget.ID, alice, gin.H{
		"amount": "250.00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	var updated budgetResp
	decode(t, w, &updated)
	if !updated.Amount.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("amount = %s, want 250.00", updated.Amount)
	}

	w = doRequest(t, r, http.MethodGet, "/api/budgets/"+budget.ID, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status %d, want 404", w.Code)
	}
	w = doRequest(t, r, http.MethodPut, "/api/budgets/"+budget.ID, bob, gin.H{"amount": "1.00"})
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign update: status %d, want 404", w.Code)
	}
}
