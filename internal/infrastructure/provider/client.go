// Package provider implements the HTTP client for the open-finance
// aggregator API.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 180 * time.Second // large transaction fetches are slow

// Client handles communication with the aggregator API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Ensure Client implements API.
var _ API = (*Client)(nil)

// NewClient creates a new aggregator API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// ListInstitutions fetches the provider's institution catalog.
func (c *Client) ListInstitutions(ctx context.Context) (*InstitutionResponse, error) {
	var resp InstitutionResponse
	if err := c.get(ctx, "/institutions", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// GetItem fetches a single item (connection) and its current status.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	var resp ItemResponse
	if err := c.get(ctx, "/items/"+url.PathEscape(itemID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("API returned no item for id %s", itemID)
	}
	return resp.Data, nil
}

// GetAccounts fetches all bank accounts of an item.
func (c *Client) GetAccounts(ctx context.Context, itemID string) (*AccountResponse, error) {
	var resp AccountResponse
	if err := c.get(ctx, "/accounts", url.Values{"itemId": {itemID}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// GetTransactions fetches transactions of one account.
func (c *Client) GetTransactions(ctx context.Context, accountID string, pageSize int) (*TransactionResponse, error) {
	q := url.Values{"accountId": {accountID}}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	var resp TransactionResponse
	if err := c.get(ctx, "/transactions", q, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// GetCreditCards fetches all credit cards of an item.
func (c *Client) GetCreditCards(ctx context.Context, itemID string) (*CreditCardResponse, error) {
	var resp CreditCardResponse
	if err := c.get(ctx, "/credit-cards", url.Values{"itemId": {itemID}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// GetCardInvoices fetches a card's invoices with their items nested.
func (c *Client) GetCardInvoices(ctx context.Context, cardID string) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	if err := c.get(ctx, "/credit-cards/"+url.PathEscape(cardID)+"/invoices", nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// GetInvestments fetches all investment positions of an item.
func (c *Client) GetInvestments(ctx context.Context, itemID string) (*InvestmentResponse, error) {
	var resp InvestmentResponse
	if err := c.get(ctx, "/investments", url.Values{"itemId": {itemID}}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("API returned success=false")
	}
	return &resp, nil
}

// UpdateItem asks the provider to refresh an item's data.
func (c *Client) UpdateItem(ctx context.Context, itemID string) (*Item, error) {
	var resp ItemResponse
	if err := c.do(ctx, http.MethodPatch, "/items/"+url.PathEscape(itemID), nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, fmt.Errorf("API returned no item for id %s", itemID)
	}
	return resp.Data, nil
}

// DeleteItem removes an item on the provider side.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("API error (status %d): %s - %s", resp.StatusCode, errResp.Error, errResp.Message)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
