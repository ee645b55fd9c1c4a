package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/router"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a router backed by a fresh in-memory database.
func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	return newTestServerWithPlaid(t, config.PlaidConfig{})
}

// newTestServerWithPlaid is newTestServer with the aggregation
// provider pointed at a fake (an httptest.Server URL in BaseURL).
func newTestServerWithPlaid(t *testing.T, plaidCfg config.PlaidConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	// A second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedDefaultCategories(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: gin.TestMode},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{EncryptionKey: "test-encryption-key"},
		Plaid:    plaidCfg,
	}
	return router.Setup(cfg, db)
}

// doRequest runs one request against the router. A non-empty token is
// sent as a bearer credential; a non-nil body is sent as JSON.
func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// registerUser creates a user and returns its bearer token.
func registerUser(t *testing.T, r *gin.Engine, email string) string {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatalf("register %s: empty token", email)
	}
	return resp.Token
}

// createAccount makes a manual account and returns its id.
func createAccount(t *testing.T, r *gin.Engine, token, name string, balance string) string {
	t.Helper()

	w := doRequest(t, r, http.MethodPost, "/api/accounts", token, gin.H{
		"account_name": name,
		"account_type": "checking",
		"balance":      json.RawMessage(fmt.Sprintf("%q", balance)),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create account %s: status %d body %s", name, w.Code, w.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	return resp.ID
}

// createTransaction adds one transaction and returns its id.
func createTransaction(t *testing.T, r *gin.Engine, token, accountID, date, amount, description string, extra gin.H) string {
	t.Helper()

	body := gin.H{
		"account_id":  accountID,
		"date":        date,
		"amount":      json.RawMessage(fmt.Sprintf("%q", amount)),
		"description": description,
	}
	for k, v := range extra {
		body[k] = v
	}

	w := doRequest(t, r, http.MethodPost, "/api/transactions", token, body)
	if w.Code != http.StatusOK {
		t.Fatalf("create transaction %s: status %d body %s", description, w.Code, w.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	decode(t, w, &resp)
	return resp.ID
}
