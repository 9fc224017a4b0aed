package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Guard validates the stored credential and role before a dashboard renders.
// It never calls the network: the signature of a JWT credential cannot be
// checked client side, so only its expiry and role claim are consulted.
type Guard struct {
	store SessionStore
	now   func() time.Time
}

// NewGuard builds a guard over the given session store.
func NewGuard(store SessionStore) *Guard {
	return &Guard{store: store, now: time.Now}
}

// CheckAccess returns the session when it is present, well formed, and
// satisfies required. An empty required role accepts any known role.
// Failures are always *AccessError.
func (g *Guard) CheckAccess(ctx context.Context, required Role) (Session, error) {
	if g == nil || g.store == nil {
		return Session{}, &AccessError{Reason: DenyNoCredential, Required: required}
	}
	session, ok, err := g.store.Load(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", &AccessError{Reason: DenyNoCredential, Required: required}, err)
	}
	if !ok || strings.TrimSpace(session.Token) == "" {
		return Session{}, &AccessError{Reason: DenyNoCredential, Required: required}
	}
	role, valid := ParseRole(string(session.Role))
	if !valid {
		return Session{}, &AccessError{Reason: DenyInvalidSession, Required: required, Actual: session.Role}
	}
	session.Role = role
	if reason, bad := g.inspectCredential(session); bad {
		return Session{}, &AccessError{Reason: reason, Required: required, Actual: role}
	}
	if required != "" && !role.Satisfies(required) {
		return Session{}, &AccessError{Reason: DenyRoleMismatch, Required: required, Actual: role}
	}
	return session, nil
}

// inspectCredential reads JWT claims without verifying the signature. Opaque
// tokens pass through untouched.
func (g *Guard) inspectCredential(session Session) (DenialReason, bool) {
	if strings.Count(session.Token, ".") != 2 {
		return "", false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(session.Token, claims); err != nil {
		return "", false
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if !g.now().Before(exp.Time) {
			return DenyExpiredCredential, true
		}
	}
	if claimed, ok := claims["role"].(string); ok && claimed != "" {
		if role, valid := ParseRole(claimed); !valid || role != session.Role {
			return DenyInvalidSession, true
		}
	}
	return "", false
}
