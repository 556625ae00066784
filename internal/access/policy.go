// Package access holds the caller identity model and the role/ownership policy
// applied to every protected operation.
package access

import (
	"context"
	"errors"
)

var ErrInvalidRole = errors.New("role must be one of user|admin|employee")

// Identity is the authenticated caller for the lifetime of a single request.
type Identity struct {
	ID   string
	Role Role
}

// Rule declares who may run an operation. SelfAccess admits callers whose id
// equals the target resource owner even when their role is not in Allowed.
type Rule struct {
	Allowed    RoleSet
	SelfAccess bool
}

type Decision uint8

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Authorize decides whether identity may run an operation guarded by rule.
// An empty targetOwnerID means the operation has no owning user.
func Authorize(identity Identity, rule Rule, targetOwnerID string) Decision {
	if rule.Allowed.Has(identity.Role) {
		return Allow
	}
	if rule.SelfAccess && targetOwnerID != "" && identity.ID != "" && identity.ID == targetOwnerID {
		return Allow
	}
	return Deny
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(contextKey{}).(Identity)
	return identity, ok
}
