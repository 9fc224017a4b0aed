package storefront

import (
	"context"
	"errors"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// LoaderOptions tunes the loader catalog.
type LoaderOptions struct {
	// ShopURL pins the seller.shop loader to one storefront. Empty means the
	// signed-in seller's own shop.
	ShopURL string
}

// Loaders binds every dashboard loader capability to client.
func Loaders(client Client, opts LoaderOptions) map[string]dashboard.Loader {
	return map[string]dashboard.Loader{
		dashboard.LoaderUsers: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			return client.ListUsers(ctx, req.Session.Token)
		}),
		dashboard.LoaderSellers: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			return client.ListSellers(ctx, req.Session.Token)
		}),
		dashboard.LoaderProducts: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			return client.ListProducts(ctx, req.Session.Token, ScopeFor(req.Session.Role))
		}),
		dashboard.LoaderOrders: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			return client.ListOrders(ctx, req.Session.Token, ScopeFor(req.Session.Role))
		}),
		dashboard.LoaderSellerDetail: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			profile, err := client.SellerDetail(ctx, req.Session.Token)
			if err != nil {
				return nil, err
			}
			return SellerRecords(profile), nil
		}),
		dashboard.LoaderSellerShop: dashboard.LoaderFunc(func(ctx context.Context, req dashboard.LoadRequest) ([]dashboard.Record, error) {
			shopURL := opts.ShopURL
			if shopURL == "" {
				profile, err := client.SellerDetail(ctx, req.Session.Token)
				if err != nil {
					return nil, err
				}
				shopURL = profile.ShopURL()
			}
			if shopURL == "" {
				return nil, errors.New("storefront: seller has no shop url")
			}
			shop, err := client.SellerShop(ctx, req.Session.Token, shopURL)
			if err != nil {
				return nil, err
			}
			return shop.Products, nil
		}),
	}
}

// SellerRecords flattens a profile into one profile row followed by one row
// per wallet currency, in currency order.
func SellerRecords(profile SellerProfile) []dashboard.Record {
	out := make([]dashboard.Record, 0, 1+len(profile.Wallets))
	if profile.Profile != nil {
		out = append(out, profile.Profile)
	}
	for _, code := range profile.Wallets.Currencies() {
		wallet := profile.Wallets[code]
		out = append(out, dashboard.Record{
			"_id":           "wallet-" + code,
			"_kind":         "wallet",
			"currency":      code,
			"balance":       wallet.Balance,
			"pendingAmount": wallet.PendingBalance,
		})
	}
	return out
}
