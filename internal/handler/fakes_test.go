package handler

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/trainfood-auth/internal/model"
	"github.com/iliyamo/trainfood-auth/internal/repository"
)

// store is an in-memory credential store shared by the fake repositories.
type store struct {
	mu      sync.Mutex
	seq     uint64
	users   map[string]model.User
	agents  map[string]model.DeliveryAgent
	sellers map[string]model.SellerProfile
	findErr error
}

func newStore() *store {
	return &store{
		users:   map[string]model.User{},
		agents:  map[string]model.DeliveryAgent{},
		sellers: map[string]model.SellerProfile{},
	}
}

type users struct{ *store }
type agents struct{ *store }
type sellers struct{ *store }

func (s users) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return model.User{}, s.findErr
	}
	u, ok := s.users[email]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s users) FindByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s users) Create(_ context.Context, u model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	s.seq++
	u.ID = s.seq
	s.users[u.Email] = u
	return u.ID, nil
}

func (s users) CreateSeller(ctx context.Context, u model.User, p model.SellerProfile) (uint64, error) {
	u.Role = model.RoleSeller
	id, err := s.Create(ctx, u)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UserID = id
	s.sellers[u.Email] = p
	return id, nil
}

func (s users) SetResetTicket(_ context.Context, id uint64, t model.ResetTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id {
			exp := t.ExpiresAt
			u.ResetOTP, u.OTPExpiresAt = t.OTP, &exp
			s.users[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s users) ConsumeResetTicket(_ context.Context, id uint64, otp, hash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == id && u.ResetOTP == otp && u.OTPExpiresAt != nil && u.OTPExpiresAt.After(now) {
			u.PasswordHash, u.ResetOTP, u.OTPExpiresAt = hash, "", nil
			s.users[email] = u
			return true, nil
		}
	}
	return false, nil
}

func (s agents) FindByEmail(_ context.Context, email string) (model.DeliveryAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[email]
	if !ok {
		return model.DeliveryAgent{}, repository.ErrNotFound
	}
	return a, nil
}

func (s agents) FindByID(_ context.Context, id uint64) (model.DeliveryAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return model.DeliveryAgent{}, repository.ErrNotFound
}

func (s agents) Create(_ context.Context, a model.DeliveryAgent) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[a.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	s.seq++
	a.ID = s.seq
	s.agents[a.Email] = a
	return a.ID, nil
}

func (s sellers) FindByEmail(_ context.Context, email string) (model.SellerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.sellers[email]
	if !ok {
		return model.SellerProfile{}, repository.ErrNotFound
	}
	return p, nil
}

type outbox struct {
	mu   sync.Mutex
	body []string
	err  error
}

func (o *outbox) Send(_ context.Context, _, _, body string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.body = append(o.body, body)
	return nil
}

func (o *outbox) last() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.body) == 0 {
		return ""
	}
	return o.body[len(o.body)-1]
}
