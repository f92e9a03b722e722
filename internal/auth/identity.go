package auth

import (
	"context"

	"github.com/google/uuid"

	"inkwell/internal/model"
)

// Identity is the authenticated caller. It is the only representation of the
// current user that handlers and services accept.
type Identity struct {
	UserID uuid.UUID
	Name   string
	Role   model.Role
}

// IdentityFromUser builds the identity of a freshly loaded user.
func IdentityFromUser(u *model.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role.IsAdmin()
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the caller identity from ctx.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

type claimsKey struct{}

// WithClaims returns a copy of ctx carrying the verified token claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom extracts the verified token claims from ctx.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}
