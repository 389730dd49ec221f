package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/trainfood-auth/internal/model"
)

// DefaultAgentPhone is stored for agents registered through the public
// endpoint until they update their profile.
const DefaultAgentPhone = "+94770000000"

// DeliveryRepo persists delivery agents in the 'delivery_agents' table.
type DeliveryRepo struct{ DB *sql.DB }

func NewDeliveryRepo(db *sql.DB) *DeliveryRepo { return &DeliveryRepo{DB: db} }

// Create inserts an agent and returns its ID.  New agents start unavailable.
func (r *DeliveryRepo) Create(ctx context.Context, a model.DeliveryAgent) (uint64, error) {
	phone := a.Phone
	if phone == "" {
		phone = DefaultAgentPhone
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO delivery_agents (name, email, password_hash, phone, is_available) VALUES (?,?,?,?,?)",
		a.Name, normalizeEmail(a.Email), a.PasswordHash, phone, a.IsAvailable)
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

// FindByEmail fetches an agent by normalized email.
func (r *DeliveryRepo) FindByEmail(ctx context.Context, email string) (model.DeliveryAgent, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,is_available,created_at FROM delivery_agents WHERE email=? LIMIT 1",
		normalizeEmail(email))
	return scanAgent(row)
}

// FindByID fetches an agent by id.
func (r *DeliveryRepo) FindByID(ctx context.Context, id uint64) (model.DeliveryAgent, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,phone,is_available,created_at FROM delivery_agents WHERE id=? LIMIT 1",
		id)
	return scanAgent(row)
}

func scanAgent(row *sql.Row) (model.DeliveryAgent, error) {
	var a model.DeliveryAgent
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone, &a.IsAvailable, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DeliveryAgent{}, ErrNotFound
	}
	return a, err
}
