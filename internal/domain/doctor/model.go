package doctor

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// clockLayout is the time-of-day format used for availability windows.
const clockLayout = "15:04"

// Profile maps to the doctor_profiles table. A doctor has at most one.
type Profile struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Specialization string    `db:"specialization" json:"specialization"`
	AvailableFrom  *string   `db:"availability_from" json:"available_from,omitempty"`
	AvailableTo    *string   `db:"availability_to" json:"available_to,omitempty"`
	Location       *string   `db:"location" json:"location,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type CreateProfileRequest struct {
	Specialization string  `json:"specialization"`
	AvailableFrom  *string `json:"available_from"`
	AvailableTo    *string `json:"available_to"`
	Location       *string `json:"location"`
}

func (r CreateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Specialization, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.AvailableFrom, validation.NilOrNotEmpty, validation.Date(clockLayout)),
		validation.Field(&r.AvailableTo, validation.NilOrNotEmpty, validation.Date(clockLayout)),
		validation.Field(&r.Location, validation.Length(0, 255)),
	)
}

// UpdateProfileRequest is a partial update; nil fields keep their value.
type UpdateProfileRequest struct {
	Specialization *string `json:"specialization"`
	AvailableFrom  *string `json:"available_from"`
	AvailableTo    *string `json:"available_to"`
	Location       *string `json:"location"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Specialization, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.AvailableFrom, validation.NilOrNotEmpty, validation.Date(clockLayout)),
		validation.Field(&r.AvailableTo, validation.NilOrNotEmpty, validation.Date(clockLayout)),
		validation.Field(&r.Location, validation.Length(0, 255)),
	)
}

var errWindowOrder = validation.NewError("validation_window_order", "available_from must be before available_to")

// checkWindow rejects a window whose start is not before its end. Both
// values are already known to parse.
func checkWindow(p *Profile) error {
	if p.AvailableFrom == nil || p.AvailableTo == nil {
		return nil
	}
	from, _ := time.Parse(clockLayout, *p.AvailableFrom)
	to, _ := time.Parse(clockLayout, *p.AvailableTo)
	if !from.Before(to) {
		return validation.Errors{"available_from": errWindowOrder}
	}
	return nil
}
