package authctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// Identity is the externally-authenticated caller attached to a request.
// The identity provider sits in front of this service; we trust the
// user ID and admin flag it forwards and never resolve credentials here.
type Identity struct {
	UserID  *snowflake.ID
	IsAdmin bool
}

type identityKey struct{}

// WithIdentity stores the caller identity in the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller identity, if the middleware set one.
func FromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// UserIDFromContext returns the authenticated user ID, if any.
// Guest checkouts carry no user ID and that is a valid state.
func UserIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := FromContext(ctx)
	if !ok || id.UserID == nil {
		return 0, false
	}
	return *id.UserID, true
}

// IsAdmin reports whether the caller was flagged as an administrator.
func IsAdmin(ctx context.Context) bool {
	id, ok := FromContext(ctx)
	return ok && id.IsAdmin
}

// ParseUserID parses a forwarded user id header value.
func ParseUserID(raw string) (*snowflake.ID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	parsed, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, false
	}
	return &parsed, true
}
