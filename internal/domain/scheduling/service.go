package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/db"
	"github.com/medrx/medrx/pkg/clock"
)

type Service struct {
	appointments AppointmentRepository
	tx           db.Transactor
	clock        clock.Clock
}

func NewService(appointments AppointmentRepository, tx db.Transactor, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{appointments: appointments, tx: tx, clock: clk}
}

// Create books an appointment for patientID. The doctor id is stored as
// given and overlapping bookings are allowed.
func (s *Service) Create(ctx context.Context, patientID uuid.UUID, req CreateAppointmentRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}
	now := s.clock.Now()
	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		AppointmentTime: req.AppointmentTime.UTC(),
		Status:          StatusBooked,
		Notes:           emptyToNil(req.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// GetForPatient hides appointments of other patients behind NotFound.
func (s *Service) GetForPatient(ctx context.Context, id, patientID uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.PatientID != patientID {
		return nil, ErrAppointmentNotFound
	}
	return a, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return s.appointments.ListByDoctor(ctx, doctorID, limit, offset)
}

// Reschedule changes the time and/or notes of a booked appointment owned by
// requesterID.
func (s *Service) Reschedule(ctx context.Context, id, requesterID uuid.UUID, req RescheduleRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}
	return s.mutate(ctx, id, func(a *Appointment) error {
		if a.PatientID != requesterID {
			return ErrNotOwner
		}
		if a.Status != StatusBooked {
			return ErrInvalidTransition
		}
		if req.AppointmentTime != nil {
			a.AppointmentTime = req.AppointmentTime.UTC()
		}
		if req.Notes != nil {
			a.Notes = emptyToNil(req.Notes)
		}
		return nil
	})
}

// Cancel moves an appointment owned by requesterID to Cancelled.
func (s *Service) Cancel(ctx context.Context, id, requesterID uuid.UUID) (*Appointment, error) {
	return s.mutate(ctx, id, func(a *Appointment) error {
		if a.PatientID != requesterID {
			return ErrNotOwner
		}
		return transition(a, StatusCancelled)
	})
}

// Complete moves a booked appointment to Completed. It performs no
// ownership check and joins the caller's transaction when there is one.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.mutate(ctx, id, func(a *Appointment) error {
		return transition(a, StatusCompleted)
	})
}

// mutate loads the appointment under a row lock, applies fn and saves it,
// all in one transaction.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(a *Appointment) error) (*Appointment, error) {
	var out *Appointment
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		a, err := s.appointments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		a.UpdatedAt = s.clock.Now()
		if err := s.appointments.Update(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func transition(a *Appointment, to Status) error {
	if !CanTransition(a.Status, to) {
		return apperror.Wrap(apperror.KindConflict,
			"cannot move appointment from "+string(a.Status)+" to "+string(to), ErrInvalidTransition)
	}
	a.Status = to
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
