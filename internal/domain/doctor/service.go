package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/pkg/clock"
)

type Service struct {
	profiles ProfileRepository
	clock    clock.Clock
}

func NewService(profiles ProfileRepository, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{profiles: profiles, clock: clk}
}

// CreateProfile registers the profile of doctor userID. A second profile for
// the same user fails with ErrProfileExists.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, req CreateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	if _, err := s.profiles.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, fmt.Errorf("check doctor profile: %w", err)
	}

	now := s.clock.Now()
	p := &Profile{
		ID:             uuid.New(),
		UserID:         userID,
		Specialization: req.Specialization,
		AvailableFrom:  req.AvailableFrom,
		AvailableTo:    req.AvailableTo,
		Location:       req.Location,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := checkWindow(p); err != nil {
		return nil, apperror.Invalid(err)
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	return s.profiles.GetByUserID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Specialization != nil {
		p.Specialization = *req.Specialization
	}
	if req.AvailableFrom != nil {
		p.AvailableFrom = req.AvailableFrom
	}
	if req.AvailableTo != nil {
		p.AvailableTo = req.AvailableTo
	}
	if req.Location != nil {
		p.Location = req.Location
	}
	if err := checkWindow(p); err != nil {
		return nil, apperror.Invalid(err)
	}
	p.UpdatedAt = s.clock.Now()

	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	return s.profiles.List(ctx, limit, offset)
}
