// Package validator normalizes and validates raw credential input before any
// store lookup happens.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Email failures, in the order they are checked.
var (
	ErrEmailRequired = errors.New("Email address is required")
	ErrEmailEmpty    = errors.New("Email address cannot be empty")
	ErrEmailFormat   = errors.New("Please enter a valid email address")
	ErrEmailDomain   = errors.New("Please enter a valid email address with a proper domain")
)

// Password failures, in the order they are checked.
var (
	ErrPasswordRequired = errors.New("Password is required")
	ErrPasswordEmpty    = errors.New("Password cannot be empty")
	ErrPasswordShort    = errors.New("Password must be at least 6 characters long")
	ErrPasswordSpaces   = errors.New("Password cannot contain spaces")
)

// MinPasswordLength applies to login, registration and password reset.
const MinPasswordLength = 6

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*()_+\-=\[\]{};':"\\|,.<>/?]`)
	digitPattern   = regexp.MustCompile(`\d`)
	letterPattern  = regexp.MustCompile(`[a-zA-Z]`)
)

// Address suffixes accepted by ValidateEmail.  This is a conservative
// heuristic that catches "user@host"-style typos, not RFC validation.
var allowedDomains = []string{".com", ".org", ".net", ".edu", ".gov", ".mil"}

var commonPasswords = map[string]struct{}{
	"password":  {},
	"123456":    {},
	"qwerty":    {},
	"admin":     {},
	"123456789": {},
}

// Field names reported in ValidationResult.Field.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Credentials is raw login input.  A nil field was not supplied at all.
type Credentials struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// SanitizedCredentials is the canonical form handed to the resolver.
type SanitizedCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SecurityChecks annotate a password for callers that make rate-limiting or
// logging decisions.  They never fail validation.
type SecurityChecks struct {
	HasSpecialChars  bool `json:"hasSpecialChars"`
	HasNumbers       bool `json:"hasNumbers"`
	HasLetters       bool `json:"hasLetters"`
	IsCommonPassword bool `json:"isCommonPassword"`
}

// ValidationResult is the outcome of Check.  Field is empty when IsValid.
type ValidationResult struct {
	IsValid        bool                 `json:"isValid"`
	Field          string               `json:"field,omitempty"`
	Error          string               `json:"error,omitempty"`
	SanitizedData  SanitizedCredentials `json:"-"`
	SecurityChecks SecurityChecks       `json:"securityChecks"`
	Timestamp      time.Time            `json:"timestamp"`
}

// ValidateEmail checks presence, emptiness, structure and domain suffix, in
// that order.  It returns nil for a valid address.
func ValidateEmail(email *string) error {
	if email == nil {
		return ErrEmailRequired
	}
	v := strings.TrimSpace(*email)
	if v == "" {
		return ErrEmailEmpty
	}
	if !emailPattern.MatchString(v) {
		return ErrEmailFormat
	}
	lower := strings.ToLower(v)
	for _, d := range allowedDomains {
		if strings.Contains(lower, d) {
			return nil
		}
	}
	return ErrEmailDomain
}

// ValidatePassword checks presence, emptiness, length and spaces, in that
// order.  It returns nil for an acceptable password.
func ValidatePassword(password *string) error {
	if password == nil {
		return ErrPasswordRequired
	}
	if *password == "" {
		return ErrPasswordEmpty
	}
	if len([]rune(*password)) < MinPasswordLength {
		return ErrPasswordShort
	}
	if strings.Contains(*password, " ") {
		return ErrPasswordSpaces
	}
	return nil
}

// Sanitize trims and lower-cases the email and trims the password.  Absent
// fields stay absent.  Sanitize(Sanitize(c)) == Sanitize(c).
func Sanitize(c Credentials) Credentials {
	var out Credentials
	if c.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*c.Email))
		out.Email = &e
	}
	if c.Password != nil {
		p := SanitizePassword(*c.Password)
		out.Password = &p
	}
	return out
}

// SanitizePassword is the canonical form of a password.  Every path that
// hashes a password applies it so the hash matches what login compares.
func SanitizePassword(p string) string {
	return strings.TrimSpace(p)
}

// Check sanitizes c, validates the canonical form and annotates it.  Email
// problems are reported before password problems.
func Check(c Credentials) ValidationResult {
	s := Sanitize(c)
	res := ValidationResult{
		IsValid:       true,
		SanitizedData: SanitizedCredentials{Email: deref(s.Email), Password: deref(s.Password)},
		Timestamp:     time.Now().UTC(),
	}
	if err := ValidateEmail(s.Email); err != nil {
		res.IsValid, res.Field, res.Error = false, FieldEmail, err.Error()
	} else if err := ValidatePassword(s.Password); err != nil {
		res.IsValid, res.Field, res.Error = false, FieldPassword, err.Error()
	}
	res.SecurityChecks = Inspect(res.SanitizedData.Password)
	return res
}

// Inspect computes the informational password flags.
func Inspect(password string) SecurityChecks {
	_, common := commonPasswords[strings.ToLower(password)]
	return SecurityChecks{
		HasSpecialChars:  specialPattern.MatchString(password),
		HasNumbers:       digitPattern.MatchString(password),
		HasLetters:       letterPattern.MatchString(password),
		IsCommonPassword: password != "" && common,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
