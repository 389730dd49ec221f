package model

import (
	"crypto/subtle"
	"time"
)

// Principal is an authenticated identity.  The set of variants is closed:
// UserPrincipal and DeliveryPrincipal are the only implementations.
type Principal interface {
	SubjectID() uint64
	DisplayName() string
	EmailAddress() string
	principal()
}

// UserPrincipal is a resolved user, optionally enriched with the seller
// profile when the user is a seller.  A nil Seller never changes the
// authentication outcome.
type UserPrincipal struct {
	User   User
	Seller *SellerProfile
}

func (p UserPrincipal) SubjectID() uint64 { return p.User.ID }

func (p UserPrincipal) DisplayName() string { return p.User.Name }

func (p UserPrincipal) EmailAddress() string { return p.User.Email }

func (UserPrincipal) principal() {}

// DeliveryPrincipal is a resolved delivery agent.
type DeliveryPrincipal struct {
	Agent DeliveryAgent
}

func (p DeliveryPrincipal) SubjectID() uint64 { return p.Agent.ID }

func (p DeliveryPrincipal) DisplayName() string { return p.Agent.Name }

func (p DeliveryPrincipal) EmailAddress() string { return p.Agent.Email }

func (DeliveryPrincipal) principal() {}

// ResetTicket is a pending password reset OTP.
type ResetTicket struct {
	OTP       string
	ExpiresAt time.Time
}

// UsableAt reports whether otp redeems the ticket at time now.  The value
// and the expiry are always checked together; a matching value on an
// expired ticket is rejected.
func (t ResetTicket) UsableAt(otp string, now time.Time) bool {
	match := subtle.ConstantTimeCompare([]byte(t.OTP), []byte(otp)) == 1
	return match && now.Before(t.ExpiresAt)
}
