// Package service holds the authentication core: the principal resolver,
// the registration guard and the password reset flow.  Business failures
// are returned as coded oops errors carrying a public message; anything
// else that escapes is a dependency failure.
package service

import (
	"github.com/samber/oops"
)

// Error codes produced by this package.  Validation failures use
// validator.CodeValidation.
const (
	CodeEmailConflict  = "EMAIL_CONFLICT"
	CodeResetInvalid   = "RESET_OTP_INVALID"
	CodeUserNotFound   = "USER_NOT_FOUND"
	CodeDependency     = "DEPENDENCY_FAILED"
	CodeUnknownSubject = "TOKEN_SUBJECT_UNKNOWN"
)

// Client-facing messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgAgentExists        = "Email already registered as delivery agent"
	MsgUserExists         = "Email already registered"
	MsgEmailRequired      = "Email required"
	MsgUserNotFound       = "User not found"
	MsgResetRequired      = "Email, OTP, and new password are required"
	MsgResetInvalid       = "Invalid or expired OTP"
	MsgServerError        = "Server error"
)

func conflict(msg string) error {
	return oops.Code(CodeEmailConflict).Public(msg).Errorf("%s", msg)
}

func userNotFound() error {
	return oops.Code(CodeUserNotFound).Public(MsgUserNotFound).Errorf("user not found")
}

func resetInvalid() error {
	return oops.Code(CodeResetInvalid).Public(MsgResetInvalid).Errorf("reset otp invalid or expired")
}

// dependency wraps an infrastructure failure.  The operation names the
// collaborator call that failed.
func dependency(operation string, err error) error {
	return oops.Code(CodeDependency).
		With("operation", operation).
		Public(MsgServerError).
		Wrap(err)
}

// Code returns the oops code carried by err, or "" when there is none.
func Code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}
