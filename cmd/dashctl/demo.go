package main

import (
	"github.com/shopspring/decimal"

	"github.com/codemaster-stack/supamart-dashboard/components/dashboard"
	"github.com/codemaster-stack/supamart-dashboard/pkg/storefront"
)

func demoData() storefront.MockData {
	return storefront.MockData{
		Users: []dashboard.Record{
			{"_id": "u-100", "name": "Amaka Obi", "email": "amaka@example.com", "status": "active"},
			{"_id": "u-101", "name": "Kwame Mensah", "email": "kwame@example.com", "status": "suspended"},
		},
		Sellers: []dashboard.Record{
			{"_id": "s-200", "shopName": "Ada Crafts", "status": "pending"},
			{"_id": "s-201", "shopName": "Lagos Leather", "status": "approved"},
		},
		Products: []dashboard.Record{
			{"_id": "p-300", "name": "Woven Basket", "price": 24.5, "currency": "USD", "stock": 12},
			{"_id": "p-301", "name": "Leather Sandals", "price": 18000, "currency": "NGN", "stock": 4},
		},
		Orders: []dashboard.Record{
			{"_id": "o-400", "status": "processing", "totalAmount": 49, "currency": "USD"},
		},
		Seller: storefront.SellerProfile{
			Profile: dashboard.Record{"_id": "s-200", "shopName": "Ada Crafts", "shopURL": "ada-crafts"},
			Wallets: dashboard.WalletSet{
				"USD": {Balance: decimal.RequireFromString("320.75"), PendingBalance: decimal.NewFromInt(40)},
				"NGN": {Balance: decimal.NewFromInt(125000)},
			},
		},
		Shops: map[string]storefront.Shop{
			"ada-crafts": {
				Seller:   dashboard.Record{"shopName": "Ada Crafts"},
				Products: []dashboard.Record{{"_id": "p-300", "name": "Woven Basket", "price": 24.5, "currency": "USD"}},
			},
		},
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("1.08"),
			"GBP": decimal.RequireFromString("1.27"),
			"NGN": decimal.RequireFromString("0.00065"),
			"GHS": decimal.RequireFromString("0.064"),
		},
	}
}
