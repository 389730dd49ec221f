package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/trainfood-auth/internal/config"
	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/model"
	"github.com/iliyamo/trainfood-auth/internal/repository"
	"github.com/iliyamo/trainfood-auth/internal/utils"
	"github.com/iliyamo/trainfood-auth/internal/validator"
)

// ResetSubject is the subject line of the OTP mail.
const ResetSubject = "Password Reset OTP"

// FieldNewPassword tags policy failures on the replacement password.
const FieldNewPassword = "newPassword"

// PasswordResetService issues and redeems one-time reset codes.  A user has
// at most one outstanding code; a new request replaces the previous one.
type PasswordResetService struct {
	users      ResetStore
	mailer     Mailer
	log        logging.Logger
	cost       int
	ttl        time.Duration
	hideAbsent bool

	now    func() time.Time
	newOTP func() (string, error)
}

// ResetOption customizes a PasswordResetService.
type ResetOption func(*PasswordResetService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ResetOption {
	return func(s *PasswordResetService) { s.now = now }
}

// WithOTPSource replaces the random OTP generator.
func WithOTPSource(gen func() (string, error)) ResetOption {
	return func(s *PasswordResetService) { s.newOTP = gen }
}

func NewPasswordResetService(users ResetStore, mailer Mailer, cfg config.ResetConfig, cost int, log logging.Logger, opts ...ResetOption) *PasswordResetService {
	if log == nil {
		log = logging.Nop()
	}
	ttl := cfg.OTPTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &PasswordResetService{
		users:      users,
		mailer:     mailer,
		log:        log,
		cost:       cost,
		ttl:        ttl,
		hideAbsent: cfg.HideUnknownEmail,
		now:        time.Now,
		newOTP:     utils.NewOTP,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// RequestReset stores a fresh OTP on the user and mails it.  Unknown emails
// fail with CodeUserNotFound unless the service hides them, in which case
// nothing is sent and nil is returned.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return validator.Invalid(validator.FieldEmail, MsgEmailRequired)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		if s.hideAbsent {
			s.log.Info(ctx, "password reset requested for unknown email")
			return nil
		}
		return userNotFound()
	}
	if err != nil {
		return dependency("find_user", err)
	}

	otp, err := s.newOTP()
	if err != nil {
		return dependency("generate_otp", err)
	}
	ticket := model.ResetTicket{OTP: otp, ExpiresAt: s.now().Add(s.ttl)}
	if err := s.users.SetResetTicket(ctx, u.ID, ticket); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return userNotFound()
		}
		return dependency("store_reset_ticket", err)
	}

	body := fmt.Sprintf("Your OTP is: %s. Valid for %s.", otp, validity(s.ttl))
	if err := s.mailer.Send(ctx, u.Email, ResetSubject, body); err != nil {
		return dependency("send_mail", err)
	}
	s.log.Info(ctx, "password reset otp issued", "user_id", u.ID, "expires_at", ticket.ExpiresAt)
	return nil
}

// validity renders d for the OTP mail: whole minutes when d is a whole
// number of minutes, seconds rounded up otherwise.
func validity(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		if n := int(d / time.Minute); n != 1 {
			return fmt.Sprintf("%d minutes", n)
		}
		return "1 minute"
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs == 1 {
		return "1 second"
	}
	return fmt.Sprintf("%d seconds", secs)
}

// ConfirmReset redeems otp and replaces the user's password.  A wrong code
// and an expired code fail identically.  The password change and the
// removal of the code happen in one conditional update.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, email, otp, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	otp = strings.TrimSpace(otp)
	newPassword = validator.SanitizePassword(newPassword)
	if email == "" || otp == "" || newPassword == "" {
		return validator.Invalid("", MsgResetRequired)
	}
	if err := validator.ValidatePassword(&newPassword); err != nil {
		return validator.Invalid(FieldNewPassword, err.Error())
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return userNotFound()
	}
	if err != nil {
		return dependency("find_user", err)
	}

	now := s.now()
	ticket, ok := u.Ticket()
	if !ok || !ticket.UsableAt(otp, now) {
		return resetInvalid()
	}

	hash, err := utils.HashPassword(newPassword, s.cost)
	if err != nil {
		return dependency("hash_password", err)
	}
	consumed, err := s.users.ConsumeResetTicket(ctx, u.ID, otp, hash, now)
	if err != nil {
		return dependency("consume_reset_ticket", err)
	}
	if !consumed {
		// Redeemed or replaced concurrently.
		return resetInvalid()
	}
	s.log.Info(ctx, "password reset completed", "user_id", u.ID)
	return nil
}
