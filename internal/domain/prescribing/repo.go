package prescribing

import (
	"context"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/apperror"
)

var (
	ErrPrescriptionNotFound = apperror.NotFound("prescription not found")
	ErrPrescriptionExists   = apperror.Conflict("prescription already exists for this appointment")
	ErrNotPrescriber        = apperror.Forbidden("not authorized to create prescription for this appointment")
	ErrNotOwner             = apperror.Forbidden("not authorized to update this prescription")
	ErrNoAccess             = apperror.Forbidden("not authorized to view this prescription")
)

// PrescriptionRepository persists prescriptions. Create returns
// ErrPrescriptionExists when the appointment already has one.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	Update(ctx context.Context, p *Prescription) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Prescription, int, error)
}
