package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type accountResp struct {
	ID          string          `json:"id"`
	AccountName string          `json:"account_name"`
	AccountType string          `json:"account_type"`
	Balance     decimal.Decimal `json:"balance"`
	Currency    string          `json:"currency"`
}

func TestAccountCreateDefaults(t *testing.T) {
	r := newTestServer(t)
	token := registerUser(t, r, "alice@example.com")

	w := doRequest(t, r, http.MethodPost, "/api/accounts", token, map[string]string{
		"account_name": "Checking",
		"account_type": "checking",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}

	var account accountResp
	decode(t, w, &account)
	if !account.Balance.IsZero() {
		t.Errorf("balance defaulted to %s, want 0", account.Balance)
	}
	if account.Currency != "USD" {
		t.Errorf("currency defaulted to %q, want USD", account.Currency)
	}
}

func TestAccountListScopedAndOrdered(t *testing.T) {
	r := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	createAccount(t, r, alice, "Older", "100.00")
	time.Sleep(5 * time.Millisecond)
	createAccount(t, r, alice, "Newer", "200.00")
	createAccount(t, r, bob, "Bob's", "999.00")

	w := doRequest(t, r, http.MethodGet, "/api/accounts", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", w.Code, w.Body.String())
	}

	var accounts []accountResp
	decode(t, w, &accounts)
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	if accounts[0].AccountName != "Newer" || accounts[1].AccountName != "Older" {
		t.Errorf("order = [%s, %s], want newest first", accounts[0].AccountName, accounts[1].AccountName)
	}
}

func TestAccountGetForeignIsNotFound(t *testing.T) {
	r := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	id := createAccount(t, r, alice, "Checking", "100.00")

	w := doRequest(t, r, http.MethodGet, "/api/accounts/"+id, bob, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status %d, want 404", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/accounts/"+id, alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("owner get: status %d body %s", w.Code, w.Body.String())
	}
}

func TestAccountDeleteIdempotentAndScoped(t *testing.T) {
	r := newTestServer(t)
	alice := registerUser(t, r, "alice@example.com")
	bob := registerUser(t, r, "bob@example.com")

	id := createAccount(t, r, alice, "Checking", "100.00")

	// A foreign delete is a no-op that still answers 204.
	w := doRequest(t, r, http.MethodDelete, "/api/accounts/"+id, bob, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("foreign delete: status %d", w.Code)
	}
	w = doRequest(t, r, http.MethodGet, "/api/accounts/"+id, alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("account vanished after foreign delete: status %d", w.Code)
	}

	w = doRequest(t, r, http.MethodDelete, "/api/accounts/"+id, alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("owner delete: status %d", w.Code)
	}
	// Deleting again stays 204.
	w = doRequest(t, r, http.MethodDelete, "/api/accounts/"+id, alice, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("repeat delete: status %d", w.Code)
	}
	w = doRequest(t, r, http.MethodGet, "/api/accounts/"+id, alice, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", w.Code)
	}
}
