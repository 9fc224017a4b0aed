package dashboard

import "net/http"

// Loader capability names bound by pkg/storefront.
const (
	LoaderUsers        = "users.list"
	LoaderSellers      = "sellers.list"
	LoaderProducts     = "products.list"
	LoaderOrders       = "orders.list"
	LoaderSellerDetail = "seller.detail"
	LoaderSellerShop   = "seller.shop"
)

// Logout sentinel ids recognized by every dashboard.
const (
	SectionLogout      = "logout"
	SectionAdminLogout = "admin-logout"
)

var adminSections = []SectionDescriptor{
	{ID: "overview", Title: "Admin Overview", RequiredRole: RoleAdmin, Icon: "gauge"},
	{ID: "manage-users", Title: "Manage Users", RequiredRole: RoleAdmin, Loader: LoaderUsers, Resource: "users", Icon: "users"},
	{ID: "manage-sellers", Title: "Manage Sellers", RequiredRole: RoleAdmin, Loader: LoaderSellers, Resource: "sellers", Icon: "store"},
	{ID: "manage-products", Title: "Manage Products", RequiredRole: RoleAdmin, Loader: LoaderProducts, Resource: "products", Icon: "box"},
	{ID: "manage-orders", Title: "Manage Orders", RequiredRole: RoleAdmin, Loader: LoaderOrders, Resource: "orders", Icon: "receipt"},
	{ID: "sales-reports", Title: "Sales Reports", RequiredRole: RoleAdmin, Loader: LoaderOrders, Resource: "orders", Icon: "chart"},
	{ID: SectionAdminLogout, Title: "Logout", Logout: true, Icon: "sign-out"},
}

var sellerSections = []SectionDescriptor{
	{ID: "overview", Title: "Store Overview", RequiredRole: RoleSeller, Loader: LoaderSellerDetail, Resource: "seller", Icon: "gauge"},
	{ID: "manage-products", Title: "My Products", RequiredRole: RoleSeller, Loader: LoaderProducts, Resource: "products", Icon: "box"},
	{ID: "manage-orders", Title: "Orders", RequiredRole: RoleSeller, Loader: LoaderOrders, Resource: "orders", Icon: "receipt"},
	{ID: "shop-preview", Title: "Shop Preview", RequiredRole: RoleSeller, Loader: LoaderSellerShop, Resource: "products", Icon: "eye"},
	{ID: "wallet", Title: "Wallet & Payouts", RequiredRole: RoleSeller, Loader: LoaderSellerDetail, Resource: "seller", Icon: "wallet"},
	{ID: "store-settings", Title: "Store Settings", RequiredRole: RoleSeller, Loader: LoaderSellerDetail, Resource: "seller", Icon: "gear"},
	{ID: "sales-reports", Title: "Sales Reports", RequiredRole: RoleSeller, Loader: LoaderOrders, Resource: "orders", Icon: "chart"},
	{ID: SectionLogout, Title: "Logout", Logout: true, Icon: "sign-out"},
}

var userSections = []SectionDescriptor{
	{ID: "overview", Title: "Dashboard", RequiredRole: RoleUser, Icon: "gauge"},
	{ID: "catalog", Title: "Browse Products", RequiredRole: RoleUser, Loader: LoaderProducts, Resource: "products", Icon: "bag"},
	{ID: "my-orders", Title: "My Orders", RequiredRole: RoleUser, Loader: LoaderOrders, Resource: "orders", Icon: "receipt"},
	{ID: "account-settings", Title: "Account Settings", RequiredRole: RoleUser, Icon: "gear"},
	{ID: SectionLogout, Title: "Logout", Logout: true, Icon: "sign-out"},
}

// DefaultSections returns a copy of the built-in section list for role.
func DefaultSections(role Role) []SectionDescriptor {
	var src []SectionDescriptor
	switch role {
	case RoleAdmin:
		src = adminSections
	case RoleSeller:
		src = sellerSections
	case RoleUser:
		src = userSections
	}
	return append([]SectionDescriptor{}, src...)
}

// DefaultHeaderTitle is shown when the active section has no title.
func DefaultHeaderTitle(role Role) string {
	switch role {
	case RoleAdmin:
		return "Admin Dashboard"
	case RoleSeller:
		return "Seller Dashboard"
	default:
		return "Dashboard"
	}
}

var defaultActions = []ActionDefinition{
	{
		Name: "approve-seller", Title: "Approve seller", RequiredRole: RoleAdmin, Resource: "sellers",
		Method: http.MethodPost, Path: "/admin/sellers/{id}/approve", NeedsTarget: true, Scope: ScopeRow,
	},
	{
		Name: "suspend-seller", Title: "Suspend seller", RequiredRole: RoleAdmin, Resource: "sellers",
		Method: http.MethodPost, Path: "/admin/sellers/{id}/suspend", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Suspend this seller? Their store will be hidden from buyers.",
	},
	{
		Name: "suspend-user", Title: "Suspend user", RequiredRole: RoleAdmin, Resource: "users",
		Method: http.MethodPost, Path: "/admin/users/{id}/suspend", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Suspend this user account?",
	},
	{
		Name: "delete-user", Title: "Delete user", RequiredRole: RoleAdmin, Resource: "users",
		Method: http.MethodDelete, Path: "/admin/users/{id}", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Delete this user permanently?",
	},
	{
		Name: "admin-delete-product", Title: "Remove product", RequiredRole: RoleAdmin, Resource: "products",
		Method: http.MethodDelete, Path: "/admin/products/{id}", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Remove this product from the marketplace?",
	},
	{
		Name: "delete-product", Title: "Delete product", RequiredRole: RoleSeller, Resource: "products",
		Method: http.MethodDelete, Path: "/products/{id}", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Delete this product?",
	},
	{
		Name: "update-order-status", Title: "Update order status", RequiredRole: RoleSeller, Resource: "orders",
		Method: http.MethodPatch, Path: "/orders/{id}/status", NeedsTarget: true, Scope: ScopeRow,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"status"},
			"properties": map[string]any{
				"status": map[string]any{"type": "string", "enum": []string{"processing", "shipped", "delivered", "cancelled"}},
			},
		},
	},
	{
		Name: "request-payout", Title: "Request payout", RequiredRole: RoleSeller, Resource: "seller",
		Method: http.MethodPost, Path: "/sellers/me/payouts", Scope: ScopeForm,
		Confirm: "Request a payout of the selected balance?",
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"amount", "currency"},
			"properties": map[string]any{
				"amount":   map[string]any{"type": "number", "exclusiveMinimum": 0},
				"currency": map[string]any{"type": "string", "pattern": "^[A-Z]{3}$"},
			},
		},
	},
	{
		Name: "add-bank-account", Title: "Add bank account", RequiredRole: RoleSeller, Resource: "seller",
		Method: http.MethodPost, Path: "/sellers/me/bank-accounts", Scope: ScopeForm,
		Schema: bankAccountSchema(),
	},
	{
		Name: "update-bank-account", Title: "Update bank account", RequiredRole: RoleSeller, Resource: "seller",
		Method: http.MethodPut, Path: "/sellers/me/bank-accounts/{id}", NeedsTarget: true, Scope: ScopeForm,
		Schema: bankAccountSchema(),
	},
	{
		Name: "delete-bank-account", Title: "Remove bank account", RequiredRole: RoleSeller, Resource: "seller",
		Method: http.MethodDelete, Path: "/sellers/me/bank-accounts/{id}", NeedsTarget: true, Scope: ScopeRow,
		Confirm: "Remove this bank account?",
	},
	{
		Name: "update-logo", Title: "Update store logo", RequiredRole: RoleSeller, Resource: "seller",
		Method: http.MethodPut, Path: "/sellers/me/logo", Scope: ScopeForm,
		Schema: map[string]any{
			"type":     "object",
			"required": []string{"logoUrl"},
			"properties": map[string]any{
				"logoUrl": map[string]any{"type": "string", "pattern": "^https?://"},
			},
		},
	},
}

func bankAccountSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"bankName", "accountNumber", "accountName"},
		"properties": map[string]any{
			"bankName":      map[string]any{"type": "string", "minLength": 2},
			"accountNumber": map[string]any{"type": "string", "pattern": "^[0-9]{6,20}$"},
			"accountName":   map[string]any{"type": "string", "minLength": 2},
		},
	}
}

// DefaultActions returns a copy of the built-in mutation actions.
func DefaultActions() []ActionDefinition {
	return append([]ActionDefinition{}, defaultActions...)
}
