package model

import "time"

// Role names carried by User records and access tokens.
const (
	RoleCustomer      = "customer"
	RoleSeller        = "seller"
	RoleDeliveryAgent = "deliveryAgent"
	RoleAdmin         = "admin"
)

// User represents a customer, seller or administrator account as stored in
// the `users` table.  Delivery agents live in their own table and are not
// users.
type User struct {
	ID           uint64     // users.id
	Name         string     // users.name
	Email        string     // users.email
	Role         string     // users.role
	PasswordHash string     // users.password_hash
	ResetOTP     string     // users.reset_otp (nullable)
	OTPExpiresAt *time.Time // users.otp_expires_at (nullable)
	CreatedAt    time.Time  // users.created_at
	UpdatedAt    time.Time  // users.updated_at
}

// Ticket returns the reset ticket currently stored on the user, if any.
// Storing the OTP on the user row means a user has at most one outstanding
// reset; issuing a new one overwrites the previous one.
func (u User) Ticket() (ResetTicket, bool) {
	if u.ResetOTP == "" || u.OTPExpiresAt == nil {
		return ResetTicket{}, false
	}
	return ResetTicket{OTP: u.ResetOTP, ExpiresAt: *u.OTPExpiresAt}, true
}

// DeliveryAgent models a row in the `delivery_agents` table.
type DeliveryAgent struct {
	ID           uint64    // delivery_agents.id
	Name         string    // delivery_agents.name
	Email        string    // delivery_agents.email
	PasswordHash string    // delivery_agents.password_hash
	Phone        string    // delivery_agents.phone
	IsAvailable  bool      // delivery_agents.is_available
	CreatedAt    time.Time // delivery_agents.created_at
}

// SellerProfile models a row in the `seller_profiles` table.  It enriches a
// user whose role is "seller"; it is never authenticated on its own.
// New profiles start unapproved and wait for manual approval.
type SellerProfile struct {
	ID             uint64    // seller_profiles.id
	UserID         uint64    // seller_profiles.user_id (references users.id)
	Name           string    // seller_profiles.name
	Email          string    // seller_profiles.email
	RestaurantName string    // seller_profiles.restaurant_name
	Station        string    // seller_profiles.station
	IsActive       bool      // seller_profiles.is_active
	IsApproved     bool      // seller_profiles.is_approved
	CreatedAt      time.Time // seller_profiles.created_at
}
