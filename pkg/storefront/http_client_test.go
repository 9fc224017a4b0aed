package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	dashboard "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewHTTPClient(Config{BaseURL: server.URL + "/"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewHTTPClientRequiresBaseURL(t *testing.T) {
	if _, err := NewHTTPClient(Config{}); err == nil {
		t.Fatalf("expected error without base url")
	}
}

func TestHTTPClientListUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/users" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"users":[{"_id":"u1","name":"Ada"},{"_id":"u2","name":"Bo"}]}`))
	})
	users, err := client.ListUsers(context.Background(), "secret")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0].ID() != "u1" {
		t.Fatalf("unexpected users: %#v", users)
	}
}

func TestHTTPClientListProductsScopesAndFlattensPrices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sellers/me/products" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":[{"_id":"p1","price":{"amount":12,"currency":"NGN"}}]}`))
	})
	products, err := client.ListProducts(context.Background(), "t", ScopeSeller)
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected one product, got %d", len(products))
	}
	if products[0]["price"] != float64(12) || products[0]["currency"] != "NGN" {
		t.Fatalf("expected flattened price, got %#v", products[0])
	}
}

func TestHTTPClientSellerDetailWallets(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"seller":{"_id":"s1","shopURL":"ada-crafts","wallets":{"usd":{"balance":"120.50","pendingBalance":"10"},"NGN":{"balance":5000}}}}`))
	})
	profile, err := client.SellerDetail(context.Background(), "t")
	if err != nil {
		t.Fatalf("seller detail: %v", err)
	}
	if profile.ShopURL() != "ada-crafts" {
		t.Fatalf("expected shop url, got %q", profile.ShopURL())
	}
	if _, ok := profile.Profile["wallets"]; ok {
		t.Fatalf("expected wallets split out of the profile")
	}
	usd := profile.Wallets["USD"]
	if !usd.Balance.Equal(decimal.RequireFromString("120.5")) || !usd.PendingBalance.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected USD wallet %#v", usd)
	}
	if got := profile.Wallets.Currencies(); len(got) != 2 || got[0] != "NGN" {
		t.Fatalf("unexpected currencies %v", got)
	}
}

func TestHTTPClientSellerShop(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/seller/ada-crafts" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"seller":{"shopName":"Ada"},"products":[{"_id":"p1","price":{"amount":"9.5","currency":"GHS"}}]}`))
	})
	shop, err := client.SellerShop(context.Background(), "", "ada-crafts")
	if err != nil {
		t.Fatalf("seller shop: %v", err)
	}
	if shop.Seller["shopName"] != "Ada" || len(shop.Products) != 1 || shop.Products[0]["currency"] != "GHS" {
		t.Fatalf("unexpected shop %#v", shop)
	}
	if _, err := client.SellerShop(context.Background(), "", " "); err == nil {
		t.Fatalf("expected error for empty shop url")
	}
}

func TestHTTPClientConvertBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/products/convert-prices" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req conversionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.ToCurrency != "NGN" || len(req.Items) != 2 || req.Items[1].FromCurrency != "EUR" || req.Items[0].Price != "10" {
			t.Fatalf("unexpected request %#v", req)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"formattedPrices":["NGN 16,000.00","NGN 8,700.00"]}}`))
	})
	pairs := []dashboard.ConversionPair{
		{Amount: decimal.NewFromInt(10), Currency: "USD"},
		{Amount: decimal.NewFromInt(5), Currency: "EUR"},
	}
	out, err := client.ConvertBatch(context.Background(), "t", "NGN", pairs)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(out) != 2 || out[1] != "NGN 8,700.00" {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestHTTPClientConvertBatchLengthMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"formattedPrices":["NGN 1.00"]}`))
	})
	pairs := []dashboard.ConversionPair{{Amount: decimal.NewFromInt(1), Currency: "USD"}, {Amount: decimal.NewFromInt(2), Currency: "USD"}}
	if _, err := client.ConvertBatch(context.Background(), "t", "NGN", pairs); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestHTTPClientMutateSendsRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/admin/sellers/s1/approve" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Request-ID"); got != "req-1" {
			t.Fatalf("expected request id, got %q", got)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"Seller approved","data":{"_id":"s1","status":"approved"}}`))
	})
	res, err := client.Mutate(context.Background(), "t", dashboard.Mutation{Method: http.MethodPost, Path: "/admin/sellers/s1/approve", RequestID: "req-1"})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if res.Message != "Seller approved" || res.Data["status"] != "approved" {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestHTTPClientMutateRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Insufficient balance"}`))
	})
	_, err := client.Mutate(context.Background(), "t", dashboard.Mutation{Method: http.MethodPost, Path: "/sellers/me/payouts", Body: map[string]any{"amount": 10}})
	var remote *dashboard.RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if remote.Status != http.StatusBadRequest || remote.Message != "Insufficient balance" {
		t.Fatalf("unexpected remote error %#v", remote)
	}
}

func TestHTTPClientSuccessFalseWithOKStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Not allowed"}`))
	})
	_, err := client.ListOrders(context.Background(), "t", ScopeBuyer)
	var remote *dashboard.RemoteError
	if !errors.As(err, &remote) || remote.Message != "Not allowed" {
		t.Fatalf("expected remote error, got %v", err)
	}
}
