package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
	"github.com/medrx/medrx/pkg/clock"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID, role auth.Role, ttl time.Duration) (string, time.Time, error)
}

type Options struct {
	AllowAdminSignup bool
}

type Service struct {
	users  UserRepository
	hasher auth.PasswordHasher
	tokens TokenIssuer
	clock  clock.Clock
	opts   Options
}

func NewService(users UserRepository, hasher auth.PasswordHasher, tokens TokenIssuer, clk clock.Clock, opts Options) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{users: users, hasher: hasher, tokens: tokens, clock: clk, opts: opts}
}

// Register creates a user with the requested role. Admin accounts are only
// accepted when self-service admin signup is enabled.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}
	if auth.Role(req.Role) == auth.RoleAdmin && !s.opts.AllowAdminSignup {
		return nil, ErrAdminSignupDisabled
	}
	return s.create(ctx, req)
}

// CreateAdmin provisions an administrator regardless of the signup policy.
func (s *Service) CreateAdmin(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Role = string(auth.RoleAdmin)
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}
	return s.create(ctx, req)
}

func (s *Service) create(ctx context.Context, req RegisterRequest) (*User, error) {
	email := NormalizeEmail(req.Email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         auth.Role(req.Role),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// the unique constraint still decides a concurrent race
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	u, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, exp, err := s.tokens.Issue(u.ID, u.Role, 0)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(exp.Sub(s.clock.Now()).Seconds()),
	}, nil
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies the non-nil fields of req. A new email must not
// belong to another user.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*User, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != u.Email {
			existing, err := s.users.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != u.ID:
				return nil, ErrEmailTaken
			case err != nil && !errors.Is(err, ErrUserNotFound):
				return nil, fmt.Errorf("check email: %w", err)
			}
			u.Email = email
		}
	}
	u.UpdatedAt = s.clock.Now()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// LookupIdentity implements auth.IdentityLookup.
func (s *Service) LookupIdentity(ctx context.Context, userID uuid.UUID) (*auth.Identity, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Identity(), nil
}
