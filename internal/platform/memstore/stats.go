package memstore

import (
	"context"

	"github.com/medrx/medrx/internal/domain/admin"
)

type statsRepo struct{ s *Store }

func (s *Store) Stats() admin.StatsRepository { return statsRepo{s} }

func (r statsRepo) Counts(ctx context.Context) (*admin.Counts, error) {
	c := admin.NewCounts()
	r.s.read(ctx, func(t *tables) {
		for _, u := range t.users {
			c.UsersByRole[u.Role]++
		}
		for _, a := range t.appointments {
			c.AppointmentsByStatus[a.Status]++
		}
		c.Prescriptions = len(t.prescriptions)
	})
	return c, nil
}
