package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Role is fixed at registration.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RolePatient, RoleDoctor, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts role names case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Email  string    `json:"email"`
}

func (i *Identity) Is(role Role) bool { return i != nil && i.Role == role }

type contextKey string

const identityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) Role {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.Role
	}
	return ""
}
