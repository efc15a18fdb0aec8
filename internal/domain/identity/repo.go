package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrUserNotFound        = apperror.NotFound("user not found")
	ErrEmailTaken          = apperror.Conflict("email already registered")
	ErrInvalidCredentials  = apperror.Unauthenticated("incorrect email or password")
	ErrAdminSignupDisabled = apperror.Forbidden("admin registration is disabled")
)

// UserRepository persists users. Implementations return ErrUserNotFound for
// unknown ids or emails and ErrEmailTaken on a duplicate email.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}
