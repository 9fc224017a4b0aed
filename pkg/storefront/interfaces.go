package storefront

import (
	"context"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// ListClient fetches role-scoped listings.
type ListClient interface {
	ListUsers(ctx context.Context, token string) ([]dashboard.Record, error)
	ListSellers(ctx context.Context, token string) ([]dashboard.Record, error)
	ListProducts(ctx context.Context, token string, scope Scope) ([]dashboard.Record, error)
	ListOrders(ctx context.Context, token string, scope Scope) ([]dashboard.Record, error)
}

// SellerClient fetches seller-facing detail.
type SellerClient interface {
	SellerDetail(ctx context.Context, token string) (SellerProfile, error)
	SellerShop(ctx context.Context, token, shopURL string) (Shop, error)
}

// Client is a convenience union for everything the dashboard calls.
type Client interface {
	ListClient
	SellerClient
	dashboard.Converter
	dashboard.Mutator
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
