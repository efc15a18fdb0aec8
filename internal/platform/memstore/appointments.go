package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/scheduling"
)

type appointmentRepo struct{ s *Store }

func (s *Store) Appointments() scheduling.AppointmentRepository { return appointmentRepo{s} }

func (r appointmentRepo) Create(ctx context.Context, a *scheduling.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.s.write(ctx, func(t *tables) error {
		t.appointments[a.ID] = *a
		return nil
	})
}

func (r appointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	var (
		a  scheduling.Appointment
		ok bool
	)
	r.s.read(ctx, func(t *tables) { a, ok = t.appointments[id] })
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	return &a, nil
}

// GetByIDForUpdate needs no extra locking: WithinTx holds txMu, so no other
// writer can touch the row until the transaction ends.
func (r appointmentRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	return r.GetByID(ctx, id)
}

func (r appointmentRepo) Update(ctx context.Context, a *scheduling.Appointment) error {
	return r.s.write(ctx, func(t *tables) error {
		old, ok := t.appointments[a.ID]
		if !ok {
			return scheduling.ErrAppointmentNotFound
		}
		old.AppointmentTime = a.AppointmentTime
		old.Status = a.Status
		old.Notes = a.Notes
		old.UpdatedAt = a.UpdatedAt
		t.appointments[a.ID] = old
		return nil
	})
}

func (r appointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(t *tables) error {
		if _, ok := t.appointments[id]; !ok {
			return scheduling.ErrAppointmentNotFound
		}
		t.cascadeAppointment(id)
		return nil
	})
}

func (r appointmentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*scheduling.Appointment, int, error) {
	return r.list(ctx, func(a scheduling.Appointment) bool { return a.PatientID == patientID }, limit, offset)
}

func (r appointmentRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*scheduling.Appointment, int, error) {
	return r.list(ctx, func(a scheduling.Appointment) bool { return a.DoctorID == doctorID }, limit, offset)
}

func (r appointmentRepo) list(ctx context.Context, match func(scheduling.Appointment) bool, limit, offset int) ([]*scheduling.Appointment, int, error) {
	var rows []scheduling.Appointment
	r.s.read(ctx, func(t *tables) {
		for _, a := range t.appointments {
			if match(a) {
				rows = append(rows, a)
			}
		}
	})
	ordered(rows, func(a scheduling.Appointment) (time.Time, uuid.UUID) { return a.CreatedAt, a.ID })

	out := make([]*scheduling.Appointment, 0, len(rows))
	for _, a := range page(rows, limit, offset) {
		a := a
		out = append(out, &a)
	}
	return out, len(rows), nil
}
