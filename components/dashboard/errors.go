package dashboard

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized matches every *AccessError via errors.Is.
	ErrUnauthorized      = errors.New("dashboard: unauthorized")
	ErrSectionNotFound   = errors.New("dashboard: section not found")
	ErrNoEligibleSection = errors.New("dashboard: no eligible section for role")
	ErrNavigationClosed  = errors.New("dashboard: navigation closed after logout")
	ErrActionCancelled   = errors.New("dashboard: action cancelled by viewer")
	ErrActionNotFound    = errors.New("dashboard: action not found")
	ErrNotBooted         = errors.New("dashboard: controller not booted")
	errMissingStore      = errors.New("dashboard: session store not configured")
)

// DenialReason explains why the Session Guard refused access.
type DenialReason string

const (
	DenyNoCredential      DenialReason = "no_credential"
	DenyRoleMismatch      DenialReason = "role_mismatch"
	DenyInvalidSession    DenialReason = "invalid_session"
	DenyExpiredCredential DenialReason = "expired_credential"
)

// AccessError is the only error kind that escapes the dashboard boundary.
type AccessError struct {
	Reason   DenialReason
	Required Role
	Actual   Role
}

func (e *AccessError) Error() string {
	switch e.Reason {
	case DenyRoleMismatch:
		return fmt.Sprintf("dashboard: access denied: role %q cannot open %q sections", e.Actual, e.Required)
	case DenyExpiredCredential:
		return "dashboard: access denied: credential expired"
	case DenyInvalidSession:
		return "dashboard: access denied: session role is missing or unknown"
	default:
		return "dashboard: access denied: no credential"
	}
}

// Is lets callers match any access failure with errors.Is(err, ErrUnauthorized).
func (e *AccessError) Is(target error) bool {
	return target == ErrUnauthorized
}

// Immediate reports whether the login redirect should skip the viewer notice.
func (e *AccessError) Immediate() bool {
	return e.Reason != DenyRoleMismatch
}

// ValidationError carries per-field messages for a mutation input, shown
// inline next to the control before any network call.
type ValidationError struct {
	Action string
	Fields map[string]string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("dashboard: invalid input for %s: %v", e.Action, e.Cause)
		}
		return fmt.Sprintf("dashboard: invalid input for %s", e.Action)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("dashboard: invalid input for %s: %s", e.Action, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// RemoteError carries a failure reported by the network API. Message is the
// server-provided text and is surfaced verbatim.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("dashboard: remote error (status %d)", e.Status)
	}
	return e.Message
}
