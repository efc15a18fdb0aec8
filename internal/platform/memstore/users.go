package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/identity"
)

type userRepo struct{ s *Store }

// Users returns the user repository backed by s.
func (s *Store) Users() identity.UserRepository { return userRepo{s} }

func (r userRepo) Create(ctx context.Context, u *identity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = identity.NormalizeEmail(u.Email)
	return r.s.write(ctx, func(t *tables) error {
		if _, taken := t.emails[u.Email]; taken {
			return identity.ErrEmailTaken
		}
		t.users[u.ID] = *u
		t.emails[u.Email] = u.ID
		return nil
	})
}

func (r userRepo) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var (
		u  identity.User
		ok bool
	)
	r.s.read(ctx, func(t *tables) { u, ok = t.users[id] })
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return &u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	var (
		id uuid.UUID
		ok bool
	)
	r.s.read(ctx, func(t *tables) { id, ok = t.emails[identity.NormalizeEmail(email)] })
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

func (r userRepo) Update(ctx context.Context, u *identity.User) error {
	u.Email = identity.NormalizeEmail(u.Email)
	return r.s.write(ctx, func(t *tables) error {
		old, ok := t.users[u.ID]
		if !ok {
			return identity.ErrUserNotFound
		}
		if old.Email != u.Email {
			if _, taken := t.emails[u.Email]; taken {
				return identity.ErrEmailTaken
			}
			delete(t.emails, old.Email)
			t.emails[u.Email] = u.ID
		}
		t.users[u.ID] = *u
		return nil
	})
}

// Delete removes the user together with their doctor profile and the
// appointments they booked.
func (r userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return identity.ErrUserNotFound
		}
		delete(t.users, id)
		delete(t.emails, u.Email)
		if pid, ok := t.doctorByUser[id]; ok {
			delete(t.doctors, pid)
			delete(t.doctorByUser, id)
		}
		for aid, a := range t.appointments {
			if a.PatientID == id {
				t.cascadeAppointment(aid)
			}
		}
		return nil
	})
}

func (r userRepo) List(ctx context.Context, limit, offset int) ([]*identity.User, int, error) {
	var rows []identity.User
	r.s.read(ctx, func(t *tables) {
		for _, u := range t.users {
			rows = append(rows, u)
		}
	})
	ordered(rows, func(u identity.User) (time.Time, uuid.UUID) { return u.CreatedAt, u.ID })

	out := make([]*identity.User, 0, len(rows))
	for _, u := range page(rows, limit, offset) {
		u := u
		out = append(out, &u)
	}
	return out, len(rows), nil
}
