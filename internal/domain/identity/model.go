package identity

import (
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/platform/auth"
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes
	maxPasswordLen = 72
	maxNameLen     = 100
)

// User maps to the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (u *User) Identity() *auth.Identity {
	return &auth.Identity{UserID: u.ID, Role: u.Role, Email: u.Email}
}

// NormalizeEmail lower-cases and trims an address so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.By(passwordStrength)),
		validation.Field(&r.Role, validation.Required,
			validation.In(string(auth.RolePatient), string(auth.RoleDoctor), string(auth.RoleAdmin))),
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, maxNameLen)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, maxNameLen)),
	)
}

type LoginRequest struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// UpdateProfileRequest carries a partial update; nil fields are left as is.
type UpdateProfileRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(1, maxNameLen)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(1, maxNameLen)),
	)
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

var (
	errPasswordLength  = validation.NewError("validation_password_length", "must be at least 8 characters long")
	errPasswordTooLong = validation.NewError("validation_password_too_long", "must be at most 72 bytes long")
	errPasswordUpper   = validation.NewError("validation_password_upper", "must contain at least one uppercase letter")
	errPasswordLower   = validation.NewError("validation_password_lower", "must contain at least one lowercase letter")
	errPasswordDigit   = validation.NewError("validation_password_digit", "must contain at least one digit")
)

// passwordStrength accepts a password iff it has at least 8 characters with
// an uppercase letter, a lowercase letter and a digit.
func passwordStrength(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if len([]rune(s)) < minPasswordLen {
		return errPasswordLength
	}
	if len(s) > maxPasswordLen {
		return errPasswordTooLong
	}

	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return errPasswordUpper
	case !lower:
		return errPasswordLower
	case !digit:
		return errPasswordDigit
	}
	return nil
}
