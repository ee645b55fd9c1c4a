// Package plaid is a thin client for the bank-data aggregation API.
// Every call signs the request with the process-level client
// credentials. Reads get a single bounded retry; the remote error is
// returned verbatim once attempts are exhausted.
package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/config"

	"github.com/shopspring/decimal"
)

const defaultTimeout = 10 * time.Second

// ErrNotConfigured is returned when client credentials are missing.
var ErrNotConfigured = errors.New("plaid client credentials not configured")

// Client wraps the remote aggregation API.
type Client struct {
	httpClient *http.Client
	clientID   string
	secret     string
	baseURL    string
}

// NewClient builds a client for the configured environment. An
// explicit BaseURL wins over the environment mapping.
func NewClient(cfg config.PlaidConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = baseURLFor(cfg.Environment)
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		baseURL:    baseURL,
	}
}

func baseURLFor(env string) string {
	switch env {
	case "production":
		return "https://production.plaid.com"
	case "development":
		return "https://development.plaid.com"
	default:
		return "https://sandbox.plaid.com"
	}
}

// ItemInfo describes a linked institution.
type ItemInfo struct {
	InstitutionID   string
	InstitutionName string
}

// AccountInfo is one account reported by the provider.
type AccountInfo struct {
	AccountID   string
	Name        string
	AccountType string
	Balance     decimal.Decimal
}

// TransactionInfo is one transaction reported by the provider. Amount
// keeps the provider's sign convention (positive = outflow).
type TransactionInfo struct {
	TransactionID string
	AccountID     string
	Amount        decimal.Decimal
	Date          time.Time
	Name          string
	MerchantName  *string
	Pending       bool
}

// CreateLinkToken starts the account-linking handshake for a user.
func (c *Client) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	req := struct {
		ClientID     string   `json:"client_id"`
		Secret       string   `json:"secret"`
		ClientName   string   `json:"client_name"`
		Products     []string `json:"products"`
		CountryCodes []string `json:"country_codes"`
		Language     string   `json:"language"`
		User         struct {
			ClientUserID string `json:"client_user_id"`
		} `json:"user"`
	}{
		ClientID:     c.clientID,
		Secret:       c.secret,
		ClientName:   "Fintrack",
		Products:     []string{"transactions"},
		CountryCodes: []string{"US"},
		Language:     "en",
	}
	req.User.ClientUserID = userID

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", req, &resp); err != nil {
		return "", err
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken trades a public token for an access token and
// the provider's item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (accessToken, itemID string, err error) {
	req := struct {
		ClientID    string `json:"client_id"`
		Secret      string `json:"secret"`
		PublicToken string `json:"public_token"`
	}{c.clientID, c.secret, publicToken}

	var resp struct {
		AccessToken string `json:"access_token"`
		ItemID      string `json:"item_id"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", req, &resp); err != nil {
		return "", "", err
	}
	return resp.AccessToken, resp.ItemID, nil
}

// GetItem fetches institution metadata for a linked item.
func (c *Client) GetItem(ctx context.Context, accessToken string) (ItemInfo, error) {
	var resp struct {
		Item struct {
			InstitutionID *string `json:"institution_id"`
		} `json:"item"`
	}
	if err := c.postIdempotent(ctx, "/item/get", c.accessRequest(accessToken), &resp); err != nil {
		return ItemInfo{}, err
	}

	institutionID := ""
	if resp.Item.InstitutionID != nil {
		institutionID = *resp.Item.InstitutionID
	}
	return ItemInfo{
		InstitutionID:   institutionID,
		InstitutionName: institutionID,
	}, nil
}

// GetAccounts fetches the accounts behind an access token.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) ([]AccountInfo, error) {
	var resp struct {
		Accounts []struct {
			AccountID string `json:"account_id"`
			Name      string `json:"name"`
			Type      string `json:"type"`
			Balances  struct {
				Current *decimal.Decimal `json:"current"`
			} `json:"balances"`
		} `json:"accounts"`
	}
	if err := c.postIdempotent(ctx, "/accounts/get", c.accessRequest(accessToken), &resp); err != nil {
		return nil, err
	}

	accounts := make([]AccountInfo, 0, len(resp.Accounts))
	for _, a := range resp.Accounts {
		balance := decimal.Zero
		if a.Balances.Current != nil {
			balance = *a.Balances.Current
		}
		accounts = append(accounts, AccountInfo{
			AccountID:   a.AccountID,
			Name:        a.Name,
			AccountType: a.Type,
			Balance:     balance,
		})
	}
	return accounts, nil
}

// GetTransactions fetches transactions for a trailing window of days.
func (c *Client) GetTransactions(ctx context.Context, accessToken string, days int) ([]TransactionInfo, error) {
	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	startDate := endDate.AddDate(0, 0, -days)

	req := struct {
		ClientID    string `json:"client_id"`
		Secret      string `json:"secret"`
		AccessToken string `json:"access_token"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	}{
		ClientID:    c.clientID,
		Secret:      c.secret,
		AccessToken: accessToken,
		StartDate:   startDate.Format("2006-01-02"),
		EndDate:     endDate.Format("2006-01-02"),
	}

	var resp struct {
		Transactions []struct {
			TransactionID string          `json:"transaction_id"`
			AccountID     string          `json:"account_id"`
			Amount        decimal.Decimal `json:"amount"`
			Date          string          `json:"date"`
			Name          string          `json:"name"`
			MerchantName  *string         `json:"merchant_name"`
			Pending       bool            `json:"pending"`
		} `json:"transactions"`
	}
	if err := c.postIdempotent(ctx, "/transactions/get", req, &resp); err != nil {
		return nil, err
	}

	transactions := make([]TransactionInfo, 0, len(resp.Transactions))
	for _, t := range resp.Transactions {
		date, err := time.Parse("2006-01-02", t.Date)
		if err != nil {
			return nil, fmt.Errorf("parse transaction date %q: %w", t.Date, err)
		}
		transactions = append(transactions, TransactionInfo{
			TransactionID: t.TransactionID,
			AccountID:     t.AccountID,
			Amount:        t.Amount,
			Date:          date,
			Name:          t.Name,
			MerchantName:  t.MerchantName,
			Pending:       t.Pending,
		})
	}
	return transactions, nil
}

type accessRequest struct {
	ClientID    string `json:"client_id"`
	Secret      string `json:"secret"`
	AccessToken string `json:"access_token"`
}

func (c *Client) accessRequest(accessToken string) accessRequest {
	return accessRequest{c.clientID, c.secret, accessToken}
}

// post performs one signed request. Non-2xx responses surface the
// remote body as the error.
func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if c.clientID == "" || c.secret == "" {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: %s: %s", path, resp.Status, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postIdempotent retries a failed read exactly once.
func (c *Client) postIdempotent(ctx context.Context, path string, body, out interface{}) error {
	err := c.post(ctx, path, body, out)
	if err == nil || errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
		return err
	}
	return c.post(ctx, path, body, out)
}
