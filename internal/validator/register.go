package validator

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

// CodeValidation tags every validation failure produced by this package.
const CodeValidation = "VALIDATION_FAILED"

// Registration messages.
const (
	MsgRegisterRequired   = "Name, email, and password are required"
	MsgNameShort          = "Name must be at least 2 characters"
	MsgEmailFormat        = "Invalid email format"
	MsgRegisterPassword   = "Password must be at least 6 characters"
	MsgInvalidRole        = "Invalid role"
	MsgSellerFieldsNeeded = "Restaurant name and station are required for sellers"
	MsgNameLong           = "Name must be at most 100 characters"
	MsgEmailLong          = "Email must be at most 191 characters"
	MsgRestaurantNameLong = "Restaurant name must be at most 150 characters"
	MsgStationLong        = "Station must be at most 100 characters"
)

// Column widths of the account tables, in characters.
const (
	MaxNameLength           = 100
	MaxEmailLength          = 191
	MaxRestaurantNameLength = 150
	MaxStationLength        = 100
)

// RegistrationInput is the raw body of POST /auth/register.
type RegistrationInput struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	RestaurantName string `json:"restaurantName"`
	Station        string `json:"station"`
}

// Normalize returns a copy with the email in its canonical login form and
// the role defaulted to customer.  Name, password and seller fields are
// trimmed.
func (in RegistrationInput) Normalize() RegistrationInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Password = SanitizePassword(in.Password)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = model.RoleCustomer
	}
	in.RestaurantName = strings.TrimSpace(in.RestaurantName)
	in.Station = strings.TrimSpace(in.Station)
	return in
}

// ValidateRegistration applies the registration rules to a normalized input.
// Only the structural email pattern is applied here; the domain allow-list
// used at login is not.  Seller fields are checked before anything is
// written so a rejected seller never leaves a user behind.
func ValidateRegistration(in RegistrationInput) error {
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return Invalid("", MsgRegisterRequired)
	}
	if n := utf8.RuneCountInString(in.Name); n < 2 {
		return Invalid("name", MsgNameShort)
	} else if n > MaxNameLength {
		return Invalid("name", MsgNameLong)
	}
	if utf8.RuneCountInString(in.Email) > MaxEmailLength {
		return Invalid(FieldEmail, MsgEmailLong)
	}
	if !emailPattern.MatchString(in.Email) {
		return Invalid(FieldEmail, MsgEmailFormat)
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return Invalid(FieldPassword, MsgRegisterPassword)
	}
	// Login refuses passwords with spaces, so such an account could never
	// sign in.
	if strings.Contains(in.Password, " ") {
		return Invalid(FieldPassword, ErrPasswordSpaces.Error())
	}
	switch in.Role {
	case model.RoleCustomer, model.RoleDeliveryAgent:
	case model.RoleSeller:
		if in.RestaurantName == "" || in.Station == "" {
			return Invalid("restaurantName", MsgSellerFieldsNeeded)
		}
		if utf8.RuneCountInString(in.RestaurantName) > MaxRestaurantNameLength {
			return Invalid("restaurantName", MsgRestaurantNameLong)
		}
		if utf8.RuneCountInString(in.Station) > MaxStationLength {
			return Invalid("station", MsgStationLong)
		}
	default:
		return Invalid("role", MsgInvalidRole)
	}
	return nil
}

// Invalid builds a field-tagged validation error.  msg is the public,
// client-facing message.
func Invalid(field, msg string) error {
	b := oops.Code(CodeValidation).Public(msg)
	if field != "" {
		b = b.With("field", field)
	}
	return b.Errorf("%s", msg)
}
