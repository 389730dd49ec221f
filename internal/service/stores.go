package service

import (
	"context"
	"time"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

// UserStore is the users table as seen by the authenticator.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id uint64) (model.User, error)
	Create(ctx context.Context, u model.User) (uint64, error)
	CreateSeller(ctx context.Context, u model.User, p model.SellerProfile) (uint64, error)
}

// DeliveryStore is the delivery_agents table.
type DeliveryStore interface {
	FindByEmail(ctx context.Context, email string) (model.DeliveryAgent, error)
	FindByID(ctx context.Context, id uint64) (model.DeliveryAgent, error)
	Create(ctx context.Context, a model.DeliveryAgent) (uint64, error)
}

// SellerStore is the seller_profiles table.
type SellerStore interface {
	FindByEmail(ctx context.Context, email string) (model.SellerProfile, error)
}

// ResetStore is the part of the users table the reset flow touches.
type ResetStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	SetResetTicket(ctx context.Context, userID uint64, t model.ResetTicket) error
	ConsumeResetTicket(ctx context.Context, userID uint64, otp, passwordHash string, now time.Time) (bool, error)
}

// Mailer delivers a plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
