package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kardo-hq/card_accounting_app/internal/apperrors"
	"github.com/kardo-hq/card_accounting_app/internal/middleware"
	"golang.org/x/oauth2"
)

const (
	// PerPage is the page size used on every paginated collection.
	PerPage = 50
	// MaxPage is the hard ceiling on pagination walks. Reaching it means
	// the termination conditions never triggered, which is an integrity
	// problem, not a big company.
	MaxPage = 1000

	// tokenExpiryMargin is subtracted from the advertised token lifetime so
	// a token is never used within its last minutes.
	tokenExpiryMargin = 240 * time.Second
)

// Credentials are the per-company API credentials plus the shared OAuth
// application identifiers.
type Credentials struct {
	OAuthID     string
	OAuthSecret string
	Login       string
	Password    string
	CompanyUUID string
}

// Client is an authenticated HTTP client for the provider API. It lazily
// fetches an OAuth password-grant token, caches it until the expiry margin,
// and transparently re-authenticates once on a 401.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokenURL   string
	creds      Credentials

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClient creates a provider API client. The HTTP client may be nil, in
// which case a default with a sane timeout is used.
func NewClient(baseURL, tokenURL string, creds Credentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokenURL:   tokenURL,
		creds:      creds,
	}
}

// tokenResponse is the OAuth token endpoint answer:
// {"access_token": "...", "token_type": "Bearer", "expires_in": 7200}.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// accessToken returns a valid cached token or fetches a new one. The token
// endpoint is a password grant extended with the company UUID, which the
// stock oauth2 flows cannot express, so the POST is built by hand and the
// result wrapped in an oauth2.Token for the expiry bookkeeping.
func (c *Client) accessToken(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token, nil
	}

	logger := middleware.GetLoggerFromCtx(ctx)
	logger.Info("requesting new provider API token", "token_url", c.tokenURL)

	form := url.Values{
		"grant_type":    {"password"},
		"client_id":     {c.creds.OAuthID},
		"client_secret": {c.creds.OAuthSecret},
		"company_id":    {c.creds.CompanyUUID},
		"username":      {c.creds.Login},
		"password":      {c.creds.Password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connection to provider token endpoint %s failed: %w", c.tokenURL, err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("cannot decode provider token answer: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Configuration(
			"provider token request failed with HTTP %d: %s (%s)",
			resp.StatusCode, tr.Error, tr.ErrorDescription)
	}

	c.token = &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		Expiry:      time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin),
	}
	logger.Info("new provider API token retrieved", "expires_in_seconds", tr.ExpiresIn)
	return c.token, nil
}

// invalidateToken drops the cached token so the next call re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = nil
	c.mu.Unlock()
}

// get performs one authenticated GET and decodes the JSON answer into out.
// A 401 invalidates the cached token and the request is retried exactly
// once with a fresh one.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	retried := false
	for {
		status, err := c.doGet(ctx, path, query, out)
		if err == nil {
			return nil
		}
		if status == http.StatusUnauthorized && !retried {
			middleware.GetLoggerFromCtx(ctx).Info("provider API token rejected, re-authenticating", "path", path)
			c.invalidateToken()
			retried = true
			continue
		}
		return err
	}
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, out any) (int, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return 0, err
	}

	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	token.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("connection to provider API %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return resp.StatusCode, fmt.Errorf(
			"wrong request on %s: HTTP %d received from provider: %s",
			endpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("cannot decode provider answer from %s: %w", endpoint, err)
	}
	return resp.StatusCode, nil
}

func pageQuery(page int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(PerPage)},
	}
}

// ListExpenseCategories returns one page of expense categories.
func (c *Client) ListExpenseCategories(ctx context.Context, page int) ([]ExpenseCategory, error) {
	var out []ExpenseCategory
	if err := c.get(ctx, "expense_categories", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAccounts returns the provider "bank" accounts of the company.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := c.get(ctx, "accounts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAccountMovements returns one page of settled movements of an account.
func (c *Client) ListAccountMovements(ctx context.Context, accountID string, page int) ([]AccountMovement, error) {
	query := pageQuery(page)
	query.Set("account_id", accountID)
	var out []AccountMovement
	if err := c.get(ctx, "account_movements", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListExpenses returns one page of expenses filtered by source type
// ("CardExpense" or "KmExpense").
func (c *Client) ListExpenses(ctx context.Context, sourceType string, page int) ([]Expense, error) {
	query := pageQuery(page)
	query.Set("expense_search[source_type_eq]", sourceType)
	var out []Expense
	if err := c.get(ctx, "expenses", query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetReceipt resolves one receipt scan.
func (c *Client) GetReceipt(ctx context.Context, receiptID string) (*Receipt, error) {
	var out Receipt
	if err := c.get(ctx, "receipts/"+receiptID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSupplier resolves one supplier record.
func (c *Client) GetSupplier(ctx context.Context, supplierID string) (*Supplier, error) {
	var out Supplier
	if err := c.get(ctx, "suppliers/"+supplierID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserProfiles returns one page of employee profiles.
func (c *Client) ListUserProfiles(ctx context.Context, page int) ([]UserProfile, error) {
	var out []UserProfile
	if err := c.get(ctx, "user_profiles", pageQuery(page), &out); err != nil {
		return nil, err
	}
	return out, nil
}
