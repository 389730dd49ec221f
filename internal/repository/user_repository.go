package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

const userColumns = "id,name,email,role,password_hash,reset_otp,otp_expires_at,created_at,updated_at"

// UserRepo persists customer, seller and admin accounts in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  u.PasswordHash must already be
// hashed.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		u.Name, normalizeEmail(u.Email), u.PasswordHash, u.Role)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateSeller inserts a seller user and its profile in one transaction.
// Either both rows are committed or neither is.
func (r *UserRepo) CreateSeller(ctx context.Context, u model.User, p model.SellerProfile) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	email := normalizeEmail(u.Email)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		u.Name, email, u.PasswordHash, model.RoleSeller)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO seller_profiles (user_id, name, email, restaurant_name, station, is_active, is_approved) VALUES (?,?,?,?,?,?,?)",
		id, u.Name, email, p.RestaurantName, p.Station, p.IsActive, p.IsApproved); err != nil {
		if isDuplicate(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *UserRepo) FindByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
	return scanUser(row)
}

// SetResetTicket stores a reset OTP on the user row, replacing any pending
// one.
func (r *UserRepo) SetResetTicket(ctx context.Context, userID uint64, t model.ResetTicket) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET reset_otp=?, otp_expires_at=? WHERE id=?",
		t.OTP, t.ExpiresAt.UTC(), userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ConsumeResetTicket replaces the password hash and clears the pending OTP
// in a single statement.  The update only applies while the stored OTP still
// equals otp and has not expired at now; it reports false when no row
// qualified, so a ticket can be redeemed at most once.
func (r *UserRepo) ConsumeResetTicket(ctx context.Context, userID uint64, otp, passwordHash string, now time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, reset_otp=NULL, otp_expires_at=NULL WHERE id=? AND reset_otp=? AND otp_expires_at > ?",
		passwordHash, userID, otp, now.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var (
		u   model.User
		otp sql.NullString
		exp sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &otp, &exp, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.ResetOTP = otp.String
	if exp.Valid {
		t := exp.Time
		u.OTPExpiresAt = &t
	}
	return u, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
