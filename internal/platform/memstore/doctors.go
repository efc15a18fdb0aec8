package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/doctor"
)

type doctorRepo struct{ s *Store }

func (s *Store) Doctors() doctor.ProfileRepository { return doctorRepo{s} }

func (r doctorRepo) Create(ctx context.Context, p *doctor.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.s.write(ctx, func(t *tables) error {
		if _, exists := t.doctorByUser[p.UserID]; exists {
			return doctor.ErrProfileExists
		}
		t.doctors[p.ID] = *p
		t.doctorByUser[p.UserID] = p.ID
		return nil
	})
}

func (r doctorRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*doctor.Profile, error) {
	var (
		p  doctor.Profile
		ok bool
	)
	r.s.read(ctx, func(t *tables) {
		var id uuid.UUID
		if id, ok = t.doctorByUser[userID]; ok {
			p = t.doctors[id]
		}
	})
	if !ok {
		return nil, doctor.ErrProfileNotFound
	}
	return &p, nil
}

func (r doctorRepo) Update(ctx context.Context, p *doctor.Profile) error {
	return r.s.write(ctx, func(t *tables) error {
		old, ok := t.doctors[p.ID]
		if !ok {
			return doctor.ErrProfileNotFound
		}
		// user_id is immutable, as in the UPDATE statement
		p.UserID = old.UserID
		t.doctors[p.ID] = *p
		return nil
	})
}

func (r doctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(t *tables) error {
		p, ok := t.doctors[id]
		if !ok {
			return doctor.ErrProfileNotFound
		}
		delete(t.doctors, id)
		delete(t.doctorByUser, p.UserID)
		return nil
	})
}

func (r doctorRepo) List(ctx context.Context, limit, offset int) ([]*doctor.Profile, int, error) {
	var rows []doctor.Profile
	r.s.read(ctx, func(t *tables) {
		for _, p := range t.doctors {
			rows = append(rows, p)
		}
	})
	ordered(rows, func(p doctor.Profile) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID })

	out := make([]*doctor.Profile, 0, len(rows))
	for _, p := range page(rows, limit, offset) {
		p := p
		out = append(out, &p)
	}
	return out, len(rows), nil
}
