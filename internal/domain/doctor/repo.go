package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrProfileNotFound = apperror.NotFound("doctor profile not found")
	ErrProfileExists   = apperror.Conflict("doctor profile already exists")
)

// ProfileRepository persists doctor profiles. Create returns
// ErrProfileExists when the user already owns one.
type ProfileRepository interface {
	Create(ctx context.Context, p *Profile) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Profile, int, error)
}
