package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// DefaultBaseURL is the public storefront API.
const DefaultBaseURL = "https://api-supamart.onrender.com/api"

// Config configures the storefront API client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// HTTPClient talks to the storefront REST API on behalf of the signed-in viewer.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient builds a client for the storefront API.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("storefront: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("storefront: invalid base url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{baseURL: base, client: httpClient}, nil
}

// Scope selects which role-scoped listing endpoint to call.
type Scope string

const (
	ScopeAdmin  Scope = "admin"
	ScopeSeller Scope = "seller"
	ScopeBuyer  Scope = "user"
)

// ScopeFor maps a viewer role onto a listing scope.
func ScopeFor(role dashboard.Role) Scope {
	switch role {
	case dashboard.RoleAdmin:
		return ScopeAdmin
	case dashboard.RoleSeller:
		return ScopeSeller
	default:
		return ScopeBuyer
	}
}

// ListUsers returns every account. Admin only.
func (c *HTTPClient) ListUsers(ctx context.Context, token string) ([]dashboard.Record, error) {
	return c.list(ctx, token, "/admin/users", "users")
}

// ListSellers returns every seller account. Admin only.
func (c *HTTPClient) ListSellers(ctx context.Context, token string) ([]dashboard.Record, error) {
	return c.list(ctx, token, "/admin/sellers", "sellers")
}

// ListProducts returns the products visible to the scope.
func (c *HTTPClient) ListProducts(ctx context.Context, token string, scope Scope) ([]dashboard.Record, error) {
	path := "/products"
	switch scope {
	case ScopeAdmin:
		path = "/admin/products"
	case ScopeSeller:
		path = "/sellers/me/products"
	}
	records, err := c.list(ctx, token, path, "products")
	if err != nil {
		return nil, err
	}
	return flattenPrices(records), nil
}

// ListOrders returns the orders visible to the scope.
func (c *HTTPClient) ListOrders(ctx context.Context, token string, scope Scope) ([]dashboard.Record, error) {
	path := "/orders/me"
	switch scope {
	case ScopeAdmin:
		path = "/admin/orders"
	case ScopeSeller:
		path = "/sellers/me/orders"
	}
	return c.list(ctx, token, path, "orders")
}

// SellerProfile is the signed-in seller with their wallets split out.
type SellerProfile struct {
	Profile dashboard.Record
	Wallets dashboard.WalletSet
}

// ShopURL returns the public shop slug, if the profile carries one.
func (p SellerProfile) ShopURL() string {
	for _, key := range []string{"shopURL", "shopUrl", "shop_url"} {
		if v, ok := p.Profile[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// SellerDetail returns the signed-in seller profile and wallet balances.
func (c *HTTPClient) SellerDetail(ctx context.Context, token string) (SellerProfile, error) {
	var payload struct {
		Seller json.RawMessage `json:"seller"`
		Data   json.RawMessage `json:"data"`
	}
	if err := c.do(ctx, token, http.MethodGet, "/sellers/me", nil, "", &payload); err != nil {
		return SellerProfile{}, err
	}
	if len(payload.Seller) == 0 {
		return decodeSeller(payload.Data)
	}
	return decodeSeller(payload.Seller)
}

// Shop is a public seller storefront.
type Shop struct {
	Seller   dashboard.Record
	Products []dashboard.Record
}

// SellerShop fetches the public storefront for shopURL.
func (c *HTTPClient) SellerShop(ctx context.Context, token, shopURL string) (Shop, error) {
	if strings.TrimSpace(shopURL) == "" {
		return Shop{}, errors.New("storefront: shop url is required")
	}
	var payload struct {
		Seller   dashboard.Record   `json:"seller"`
		Products []dashboard.Record `json:"products"`
	}
	path := "/products/seller/" + url.PathEscape(shopURL)
	if err := c.do(ctx, token, http.MethodGet, path, nil, "", &payload); err != nil {
		return Shop{}, err
	}
	return Shop{Seller: payload.Seller, Products: flattenPrices(payload.Products)}, nil
}

type conversionItem struct {
	Price        string `json:"price"`
	FromCurrency string `json:"fromCurrency"`
}

type conversionRequest struct {
	ToCurrency string           `json:"toCurrency"`
	Items      []conversionItem `json:"items"`
}

// ConvertBatch converts every pair into target in one request. The result is
// positionally aligned with pairs.
func (c *HTTPClient) ConvertBatch(ctx context.Context, token, target string, pairs []dashboard.ConversionPair) ([]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	req := conversionRequest{ToCurrency: target, Items: make([]conversionItem, len(pairs))}
	for i, pair := range pairs {
		req.Items[i] = conversionItem{Price: pair.Amount.String(), FromCurrency: pair.Currency}
	}
	var payload struct {
		FormattedPrices []string `json:"formattedPrices"`
	}
	if err := c.do(ctx, token, http.MethodPost, "/products/convert-prices", req, "", &payload); err != nil {
		return nil, err
	}
	if len(payload.FormattedPrices) != len(pairs) {
		return nil, fmt.Errorf("storefront: conversion returned %d prices for %d pairs", len(payload.FormattedPrices), len(pairs))
	}
	return payload.FormattedPrices, nil
}

// Mutate sends one mutation. Server failures surface as *dashboard.RemoteError
// carrying the server message.
func (c *HTTPClient) Mutate(ctx context.Context, token string, m dashboard.Mutation) (dashboard.MutationResult, error) {
	var body any
	if len(m.Body) > 0 {
		body = m.Body
	}
	var payload struct {
		Data dashboard.Record `json:"data"`
	}
	env, err := c.send(ctx, token, m.Method, m.Path, body, m.RequestID, &payload)
	if err != nil {
		return dashboard.MutationResult{}, err
	}
	return dashboard.MutationResult{Message: env.Message, Data: payload.Data}, nil
}

func (c *HTTPClient) list(ctx context.Context, token, path, key string) ([]dashboard.Record, error) {
	var payload map[string]json.RawMessage
	if err := c.do(ctx, token, http.MethodGet, path, nil, "", &payload); err != nil {
		return nil, err
	}
	raw, ok := payload[key]
	if !ok {
		raw, ok = payload["data"]
	}
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var records []dashboard.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("storefront: decode %s: %w", key, err)
	}
	return records, nil
}

// envelope is the shared response shape: a success flag, an optional
// message, and the result either under "data" or under named keys.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (c *HTTPClient) do(ctx context.Context, token, method, path string, payload any, requestID string, target any) error {
	_, err := c.send(ctx, token, method, path, payload, requestID, target)
	return err
}

func (c *HTTPClient) send(ctx context.Context, token, method, path string, payload any, requestID string, target any) (envelope, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return envelope{}, fmt.Errorf("storefront: encode payload: %w", err)
		}
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return envelope{}, fmt.Errorf("storefront: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("storefront: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, fmt.Errorf("storefront: read response: %w", err)
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return envelope{}, fmt.Errorf("storefront: decode response: %w", err)
		}
	}
	if resp.StatusCode >= 300 || (env.Success != nil && !*env.Success) {
		message := env.Message
		if message == "" && resp.StatusCode >= 300 {
			message = strings.TrimSpace(string(raw))
		}
		return env, &dashboard.RemoteError{Status: resp.StatusCode, Message: message}
	}
	if target == nil || len(raw) == 0 {
		return env, nil
	}
	if err := unmarshalResult(raw, target); err != nil {
		return env, fmt.Errorf("storefront: decode response: %w", err)
	}
	return env, nil
}

// unmarshalResult decodes the named keys at the top level, then again from
// "data" when the API nests them there.
func unmarshalResult(raw []byte, target any) error {
	if err := json.Unmarshal(raw, target); err != nil {
		return err
	}
	var nested struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &nested); err != nil || len(nested.Data) == 0 || nested.Data[0] != '{' {
		return nil
	}
	return json.Unmarshal(nested.Data, target)
}

func decodeSeller(raw json.RawMessage) (SellerProfile, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return SellerProfile{}, errors.New("storefront: seller profile missing from response")
	}
	var profile dashboard.Record
	if err := json.Unmarshal(raw, &profile); err != nil {
		return SellerProfile{}, fmt.Errorf("storefront: decode seller: %w", err)
	}
	var wallets struct {
		Wallets map[string]struct {
			Balance        json.Number `json:"balance"`
			PendingBalance json.Number `json:"pendingBalance"`
		} `json:"wallets"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&wallets); err != nil {
		return SellerProfile{}, fmt.Errorf("storefront: decode wallets: %w", err)
	}
	set := dashboard.WalletSet{}
	for code, w := range wallets.Wallets {
		set[strings.ToUpper(code)] = dashboard.Wallet{
			Balance:        numberOrZero(w.Balance),
			PendingBalance: numberOrZero(w.PendingBalance),
		}
	}
	delete(profile, "wallets")
	return SellerProfile{Profile: profile, Wallets: set}, nil
}

func numberOrZero(n json.Number) decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// flattenPrices lifts {price: {amount, currency}} into flat price and
// currency fields so renderers can tag them.
func flattenPrices(records []dashboard.Record) []dashboard.Record {
	for _, rec := range records {
		price, ok := rec["price"].(map[string]any)
		if !ok {
			continue
		}
		if amount, ok := price["amount"]; ok {
			rec["price"] = amount
		}
		if currency, ok := price["currency"].(string); ok && currency != "" {
			if _, exists := rec["currency"]; !exists {
				rec["currency"] = currency
			}
		}
	}
	return records
}
