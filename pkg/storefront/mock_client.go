package storefront

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// MockData seeds deterministic storefront responses for tests or local demos.
type MockData struct {
	Users    []dashboard.Record
	Sellers  []dashboard.Record
	Products []dashboard.Record
	Orders   []dashboard.Record
	Seller   SellerProfile
	Shops    map[string]Shop
	// Rates values one unit of each currency in a shared base currency.
	Rates map[string]decimal.Decimal
}

// MockClient implements Client using in-memory fixtures.
type MockClient struct {
	data      MockData
	mu        sync.RWMutex
	mutations []dashboard.Mutation
}

// NewMockClient builds a mock storefront client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data}
}

func (c *MockClient) ListUsers(context.Context, string) ([]dashboard.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.data.Users), nil
}

func (c *MockClient) ListSellers(context.Context, string) ([]dashboard.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.data.Sellers), nil
}

// ListProducts returns the fixture products regardless of scope.
func (c *MockClient) ListProducts(context.Context, string, Scope) ([]dashboard.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.data.Products), nil
}

// ListOrders returns the fixture orders regardless of scope.
func (c *MockClient) ListOrders(context.Context, string, Scope) ([]dashboard.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneRecords(c.data.Orders), nil
}

func (c *MockClient) SellerDetail(context.Context, string) (SellerProfile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wallets := make(dashboard.WalletSet, len(c.data.Seller.Wallets))
	for code, w := range c.data.Seller.Wallets {
		wallets[code] = w
	}
	return SellerProfile{Profile: cloneRecord(c.data.Seller.Profile), Wallets: wallets}, nil
}

func (c *MockClient) SellerShop(_ context.Context, _ string, shopURL string) (Shop, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	shop, ok := c.data.Shops[shopURL]
	if !ok {
		return Shop{}, &dashboard.RemoteError{Status: 404, Message: "Shop not found"}
	}
	return Shop{Seller: cloneRecord(shop.Seller), Products: cloneRecords(shop.Products)}, nil
}

// ConvertBatch converts through the fixture rates and formats like the API.
func (c *MockClient) ConvertBatch(_ context.Context, _ string, target string, pairs []dashboard.ConversionPair) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	to, ok := c.data.Rates[target]
	if !ok || to.IsZero() {
		return nil, fmt.Errorf("storefront: no rate for %s", target)
	}
	out := make([]string, len(pairs))
	for i, pair := range pairs {
		from, ok := c.data.Rates[pair.Currency]
		if !ok {
			return nil, fmt.Errorf("storefront: no rate for %s", pair.Currency)
		}
		out[i] = target + " " + pair.Amount.Mul(from).Div(to).StringFixed(2)
	}
	return out, nil
}

// Mutate records the mutation and acknowledges it.
func (c *MockClient) Mutate(_ context.Context, _ string, m dashboard.Mutation) (dashboard.MutationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mutations = append(c.mutations, m)
	return dashboard.MutationResult{Message: fmt.Sprintf("%s %s accepted", strings.ToUpper(m.Method), m.Path)}, nil
}

// Mutations returns the mutations received so far.
func (c *MockClient) Mutations() []dashboard.Mutation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]dashboard.Mutation(nil), c.mutations...)
}

func cloneRecords(in []dashboard.Record) []dashboard.Record {
	if in == nil {
		return nil
	}
	out := make([]dashboard.Record, len(in))
	for i, rec := range in {
		out[i] = cloneRecord(rec)
	}
	return out
}

func cloneRecord(rec dashboard.Record) dashboard.Record {
	if rec == nil {
		return nil
	}
	out := make(dashboard.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
