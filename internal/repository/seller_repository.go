package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

// SellerRepo reads seller profiles from the 'seller_profiles' table.
// Profiles are written together with their user by UserRepo.CreateSeller.
type SellerRepo struct{ DB *sql.DB }

func NewSellerRepo(db *sql.DB) *SellerRepo { return &SellerRepo{DB: db} }

// FindByEmail fetches the profile linked to a seller's email.
func (r *SellerRepo) FindByEmail(ctx context.Context, email string) (model.SellerProfile, error) {
	var p model.SellerProfile
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,name,email,restaurant_name,station,is_active,is_approved,created_at FROM seller_profiles WHERE email=? LIMIT 1",
		normalizeEmail(email)).Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.RestaurantName, &p.Station, &p.IsActive, &p.IsApproved, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SellerProfile{}, ErrNotFound
	}
	return p, err
}
