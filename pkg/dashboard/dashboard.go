package dashboard

import (
	core "github.com/codemaster-stack/supamart-dashboard/components/dashboard"
)

// Controller exposes the underlying components/dashboard.Controller type.
type Controller = core.Controller

// Options re-export for convenience.
type Options = core.Options

// Role and Session re-exports.
type (
	Role    = core.Role
	Session = core.Session
)

const (
	RoleAdmin  = core.RoleAdmin
	RoleSeller = core.RoleSeller
	RoleUser   = core.RoleUser
)

// NewController proxies to the internal constructor.
func NewController(opts Options) *Controller {
	return core.NewController(opts)
}
