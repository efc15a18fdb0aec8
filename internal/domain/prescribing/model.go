package prescribing

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// Medicine is one line of a prescription. Stored inside the medicines JSONB
// column.
type Medicine struct {
	Name         string  `json:"name"`
	Dosage       string  `json:"dosage"`
	Duration     string  `json:"duration"`
	Instructions *string `json:"instructions,omitempty"`
}

func (m Medicine) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&m.Dosage, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Duration, validation.Required, validation.Length(1, 100)),
		validation.Field(&m.Instructions, validation.Length(0, 1000)),
	)
}

// Prescription maps to the prescriptions table. DoctorID and PatientID are
// copied from the appointment when the prescription is issued.
type Prescription struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	Medicines     []Medicine `db:"medicines" json:"medicines"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type CreatePrescriptionRequest struct {
	AppointmentID uuid.UUID  `json:"appointment_id"`
	Notes         *string    `json:"notes"`
	Medicines     []Medicine `json:"medicines"`
}

func (r CreatePrescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AppointmentID, validation.By(requiredUUID)),
		validation.Field(&r.Notes, validation.Length(0, 4000)),
		validation.Field(&r.Medicines, validation.Required),
	)
}

// UpdatePrescriptionRequest is a partial update: nil notes or a nil medicine
// list leave the stored value alone. A supplied list replaces the old one.
type UpdatePrescriptionRequest struct {
	Notes     *string    `json:"notes"`
	Medicines []Medicine `json:"medicines"`
}

func (r UpdatePrescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.Length(0, 4000)),
		validation.Field(&r.Medicines, validation.NilOrNotEmpty),
	)
}

var errRequiredID = validation.NewError("validation_required", "cannot be blank")

func requiredUUID(value interface{}) error {
	if id, _ := value.(uuid.UUID); id == uuid.Nil {
		return errRequiredID
	}
	return nil
}
