package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrUnknownUser = apperror.Unauthenticated("user no longer exists")
	ErrWrongRole   = apperror.Forbidden("insufficient role")
)

// IdentityLookup loads the current identity of a user from the store.
// It returns an error matching apperror.ErrNotFound for unknown ids.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, userID uuid.UUID) (*Identity, error)
}

// Authenticator turns a bearer token into an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}

// Guard resolves identities locally: the token must verify and its subject
// must still exist.
type Guard struct {
	tokens TokenVerifier
	users  IdentityLookup
}

func NewGuard(tokens TokenVerifier, users IdentityLookup) *Guard {
	return &Guard{tokens: tokens, users: users}
}

func (g *Guard) ResolveIdentity(ctx context.Context, token string) (*Identity, error) {
	claimed, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	id, err := g.users.LookupIdentity(ctx, claimed.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	// roles are immutable, so a mismatch means the token was not ours
	if id.Role != claimed.Role {
		return nil, ErrInvalidToken
	}
	return id, nil
}

func (g *Guard) Authenticate(ctx context.Context, token string) (*Identity, error) {
	return g.ResolveIdentity(ctx, token)
}

// CheckRole fails with Forbidden unless id holds one of roles. There is no
// implicit admin override.
func CheckRole(id *Identity, roles ...Role) (*Identity, error) {
	if id == nil {
		return nil, ErrInvalidToken
	}
	for _, r := range roles {
		if id.Role == r {
			return id, nil
		}
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return nil, apperror.Wrap(apperror.KindForbidden,
		fmt.Sprintf("required role: %s", strings.Join(names, " or ")), ErrWrongRole)
}
