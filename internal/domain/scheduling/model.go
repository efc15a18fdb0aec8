package scheduling

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every appointment status in lifecycle order.
var Statuses = []Status{StatusBooked, StatusCompleted, StatusCancelled}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the lifecycle permits from -> to.
// Booked is the only state with outgoing edges.
func CanTransition(from, to Status) bool {
	return from == StatusBooked && (to == StatusCompleted || to == StatusCancelled)
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	AppointmentTime time.Time `db:"scheduled_at" json:"appointment_time"`
	Status          Status    `db:"status" json:"status"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

type CreateAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id"`
	AppointmentTime time.Time `json:"appointment_time"`
	Notes           *string   `json:"notes"`
}

func (r CreateAppointmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DoctorID, validation.By(requiredUUID)),
		validation.Field(&r.AppointmentTime, validation.Required),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

// RescheduleRequest is a partial update. A nil field is left untouched; an
// empty notes string clears the notes.
type RescheduleRequest struct {
	AppointmentTime *time.Time `json:"appointment_time"`
	Notes           *string    `json:"notes"`
}

func (r RescheduleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AppointmentTime, validation.NilOrNotEmpty),
		validation.Field(&r.Notes, validation.Length(0, 2000)),
	)
}

var errRequiredID = validation.NewError("validation_required", "cannot be blank")

func requiredUUID(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errRequiredID
	}
	return nil
}
