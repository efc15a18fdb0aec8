package scheduling

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrAppointmentNotFound = apperror.NotFound("appointment not found")
	ErrNotOwner            = apperror.Forbidden("not authorized to modify this appointment")
	ErrInvalidTransition   = apperror.Conflict("appointment is no longer booked")
)

// AppointmentRepository persists appointments. Lookups of unknown ids return
// ErrAppointmentNotFound.
type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
}
