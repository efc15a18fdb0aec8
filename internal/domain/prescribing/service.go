package prescribing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
	"github.com/medrx/medrx/internal/platform/db"
	"github.com/medrx/medrx/pkg/clock"
)

// AppointmentLifecycle is the part of the appointment manager that issuing a
// prescription depends on. *scheduling.Service satisfies it.
type AppointmentLifecycle interface {
	Get(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

type Service struct {
	prescriptions PrescriptionRepository
	appointments  AppointmentLifecycle
	tx            db.Transactor
	clock         clock.Clock
}

func NewService(prescriptions PrescriptionRepository, appointments AppointmentLifecycle, tx db.Transactor, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	return &Service{prescriptions: prescriptions, appointments: appointments, tx: tx, clock: clk}
}

// Create issues the prescription for an appointment of doctorID and marks
// the appointment completed. Both writes commit together or not at all.
// Checks run in order: appointment exists, caller is its doctor, no
// prescription exists yet.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, req CreatePrescriptionRequest) (*Prescription, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		appt, err := s.appointments.Get(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		if appt.DoctorID != doctorID {
			return ErrNotPrescriber
		}

		if _, err := s.prescriptions.GetByAppointment(ctx, appt.ID); err == nil {
			return ErrPrescriptionExists
		} else if !errors.Is(err, ErrPrescriptionNotFound) {
			return fmt.Errorf("check existing prescription: %w", err)
		}

		now := s.clock.Now()
		p := &Prescription{
			ID:            uuid.New(),
			AppointmentID: appt.ID,
			DoctorID:      appt.DoctorID,
			PatientID:     appt.PatientID,
			Notes:         emptyToNil(req.Notes),
			Medicines:     req.Medicines,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// a concurrent issuer loses on the unique appointment_id constraint
		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		if _, err := s.appointments.Complete(ctx, appt.ID); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.prescriptions.GetByID(ctx, id)
}

// GetForUser returns the prescription when who may see it: its patient, its
// doctor or any admin.
func (s *Service) GetForUser(ctx context.Context, id uuid.UUID, who *auth.Identity) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case who == nil:
		return nil, auth.ErrInvalidToken
	case who.Role == auth.RoleAdmin:
	case who.Role == auth.RolePatient && p.PatientID == who.UserID:
	case who.Role == auth.RoleDoctor && p.DoctorID == who.UserID:
	default:
		return nil, ErrNoAccess
	}
	return p, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.prescriptions.ListByDoctor(ctx, doctorID, limit, offset)
}

// ListFor filters by the caller's role. Admins get an empty list.
func (s *Service) ListFor(ctx context.Context, who *auth.Identity, limit, offset int) ([]*Prescription, int, error) {
	if who == nil {
		return nil, 0, auth.ErrInvalidToken
	}
	switch who.Role {
	case auth.RolePatient:
		return s.ListForPatient(ctx, who.UserID, limit, offset)
	case auth.RoleDoctor:
		return s.ListForDoctor(ctx, who.UserID, limit, offset)
	default:
		return nil, 0, nil
	}
}

// Update changes notes and/or medicines of a prescription issued by
// doctorID.
func (s *Service) Update(ctx context.Context, id, doctorID uuid.UUID, req UpdatePrescriptionRequest) (*Prescription, error) {
	if err := req.Validate(); err != nil {
		return nil, apperror.Invalid(err)
	}

	var out *Prescription
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := s.prescriptions.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.DoctorID != doctorID {
			return ErrNotOwner
		}
		// "" clears the notes, as in appointment reschedule
		if req.Notes != nil {
			p.Notes = emptyToNil(req.Notes)
		}
		if req.Medicines != nil {
			p.Medicines = req.Medicines
		}
		p.UpdatedAt = s.clock.Now()
		if err := s.prescriptions.Update(ctx, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
