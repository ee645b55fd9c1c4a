package plaid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/config"
)

func testClient(srvURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: time.Second},
		clientID:   "client-id",
		secret:     "client-secret",
		baseURL:    srvURL,
	}
}

func TestBaseURLFor(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"production", "https://production.plaid.com"},
		{"development", "https://development.plaid.com"},
		{"sandbox", "https://sandbox.plaid.com"},
		{"", "https://sandbox.plaid.com"},
		{"unknown", "https://sandbox.plaid.com"},
	}
	for _, tt := range tests {
		if got := baseURLFor(tt.env); got != tt.want {
			t.Errorf("baseURLFor(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestNewClientBaseURLOverride(t *testing.T) {
	c := NewClient(config.PlaidConfig{
		ClientID:    "id",
		Secret:      "secret",
		Environment: "production",
		BaseURL:     "http://127.0.0.1:9999",
	})
	if c.baseURL != "http://127.0.0.1:9999" {
		t.Errorf("baseURL = %q, want the override", c.baseURL)
	}

	c = NewClient(config.PlaidConfig{ClientID: "id", Secret: "secret", Environment: "production"})
	if c.baseURL != "https://production.plaid.com" {
		t.Errorf("baseURL = %q, want the environment mapping", c.baseURL)
	}
}

func TestNotConfigured(t *testing.T) {
	c := NewClient(config.PlaidConfig{})
	_, err := c.CreateLinkToken(context.Background(), "user-1")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRequestsCarryCredentials(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"link_token": "link-abc"})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	token, err := c.CreateLinkToken(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("create link token: %v", err)
	}
	if token != "link-abc" {
		t.Errorf("token = %q", token)
	}
	if got["client_id"] != "client-id" || got["secret"] != "client-secret" {
		t.Errorf("credentials missing from body: %v", got)
	}
	if user, ok := got["user"].(map[string]interface{}); !ok || user["client_user_id"] != "user-1" {
		t.Errorf("user block = %v", got["user"])
	}
}

func TestIdempotentReadRetriesOnce(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, `{"error_code":"INTERNAL_SERVER_ERROR"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"accounts": []map[string]interface{}{
				{"account_id": "acc-1", "name": "Checking", "type": "depository",
					"balances": map[string]float64{"current": 1250.75}},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	accounts, err := c.GetAccounts(context.Background(), "access-token")
	if err != nil {
		t.Fatalf("get accounts: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(accounts) != 1 || accounts[0].AccountID != "acc-1" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if accounts[0].Balance.String() != "1250.75" {
		t.Errorf("balance = %s", accounts[0].Balance)
	}
}

func TestIdempotentReadGivesUpAfterRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error_code":"INSTITUTION_DOWN"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetAccounts(context.Background(), "access-token")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	// The remote body surfaces in the error.
	if !strings.Contains(err.Error(), "INSTITUTION_DOWN") {
		t.Errorf("error %q does not carry remote body", err)
	}
}

// Token issuance is not an idempotent read; a failure must not repeat.
func TestCreateLinkTokenDoesNotRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error_code":"RATE_LIMIT"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.CreateLinkToken(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestExchangePublicToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item/public_token/exchange" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "access-abc",
			"item_id":      "item-xyz",
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	access, itemID, err := c.ExchangePublicToken(context.Background(), "public-token")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if access != "access-abc" || itemID != "item-xyz" {
		t.Errorf("got %q / %q", access, itemID)
	}
}

func TestGetTransactionsWindow(t *testing.T) {
	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"transactions": []map[string]interface{}{
				{"transaction_id": "txn-1", "account_id": "acc-1", "amount": 50.0,
					"date": "2026-02-10", "name": "Grocery Store", "pending": false},
			},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	transactions, err := c.GetTransactions(context.Background(), "access-token", 30)
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		t.Fatalf("start date %q: %v", req.StartDate, err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		t.Fatalf("end date %q: %v", req.EndDate, err)
	}
	if days := int(end.Sub(start).Hours() / 24); days != 30 {
		t.Errorf("window = %d days, want 30", days)
	}

	if len(transactions) != 1 {
		t.Fatalf("transactions = %+v", transactions)
	}
	got := transactions[0]
	if got.TransactionID != "txn-1" || got.Name != "Grocery Store" {
		t.Errorf("transaction = %+v", got)
	}
	// The provider convention is preserved here; import negates later.
	if got.Amount.String() != "50" {
		t.Errorf("amount = %s, want 50", got.Amount)
	}
	if !got.Date.Equal(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v", got.Date)
	}
}
