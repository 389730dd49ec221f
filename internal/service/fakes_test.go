package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/trainfood-auth/internal/model"
	"github.com/iliyamo/trainfood-auth/internal/repository"
	"github.com/iliyamo/trainfood-auth/internal/utils"
)

const testCost = bcrypt.MinCost

// memStore is an in-memory stand-in for the three MySQL repositories.
type memStore struct {
	mu      sync.Mutex
	nextID  uint64
	users   map[string]model.User
	agents  map[string]model.DeliveryAgent
	sellers map[string]model.SellerProfile

	failUsers   error
	failAgents  error
	failSellers error
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]model.User{},
		agents:  map[string]model.DeliveryAgent{},
		sellers: map[string]model.SellerProfile{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, testCost)
	require.NoError(t, err)
	return h
}

func (s *memStore) addUser(t *testing.T, email, password, role string) model.User {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.id(), Name: "User " + email, Email: email, Role: role, PasswordHash: mustHash(t, password)}
	s.users[email] = u
	return u
}

func (s *memStore) addAgent(t *testing.T, email, password string) model.DeliveryAgent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	a := model.DeliveryAgent{ID: s.id(), Name: "Agent " + email, Email: email, PasswordHash: mustHash(t, password)}
	s.agents[email] = a
	return a
}

func (s *memStore) user(email string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	return u, ok
}

type memUsers struct{ *memStore }

func (s memUsers) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUsers != nil {
		return model.User{}, s.failUsers
	}
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s memUsers) FindByID(_ context.Context, id uint64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (s memUsers) Create(_ context.Context, u model.User) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	u.ID = s.id()
	s.users[u.Email] = u
	return u.ID, nil
}

func (s memUsers) CreateSeller(_ context.Context, u model.User, p model.SellerProfile) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	if s.failSellers != nil {
		return 0, s.failSellers
	}
	u.ID = s.id()
	u.Role = model.RoleSeller
	p.UserID = u.ID
	p.ID = s.id()
	s.users[u.Email] = u
	s.sellers[u.Email] = p
	return u.ID, nil
}

func (s memUsers) SetResetTicket(_ context.Context, userID uint64, t model.ResetTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID == userID {
			exp := t.ExpiresAt
			u.ResetOTP, u.OTPExpiresAt = t.OTP, &exp
			s.users[email] = u
			return nil
		}
	}
	return repository.ErrNotFound
}

// ConsumeResetTicket mirrors the conditional UPDATE of the MySQL repo.
func (s memUsers) ConsumeResetTicket(_ context.Context, userID uint64, otp, hash string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.ID != userID {
			continue
		}
		if u.ResetOTP != otp || u.OTPExpiresAt == nil || !u.OTPExpiresAt.After(now) {
			return false, nil
		}
		u.PasswordHash, u.ResetOTP, u.OTPExpiresAt = hash, "", nil
		s.users[email] = u
		return true, nil
	}
	return false, nil
}

type memAgents struct{ *memStore }

func (s memAgents) FindByEmail(_ context.Context, email string) (model.DeliveryAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAgents != nil {
		return model.DeliveryAgent{}, s.failAgents
	}
	a, ok := s.agents[strings.ToLower(email)]
	if !ok {
		return model.DeliveryAgent{}, repository.ErrNotFound
	}
	return a, nil
}

func (s memAgents) FindByID(_ context.Context, id uint64) (model.DeliveryAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return model.DeliveryAgent{}, repository.ErrNotFound
}

func (s memAgents) Create(_ context.Context, a model.DeliveryAgent) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[a.Email]; ok {
		return 0, repository.ErrEmailExists
	}
	a.ID = s.id()
	s.agents[a.Email] = a
	return a.ID, nil
}

type memSellers struct{ *memStore }

func (s memSellers) FindByEmail(_ context.Context, email string) (model.SellerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSellers != nil {
		return model.SellerProfile{}, s.failSellers
	}
	p, ok := s.sellers[email]
	if !ok {
		return model.SellerProfile{}, repository.ErrNotFound
	}
	return p, nil
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func newTestIssuer(t *testing.T) *utils.Issuer {
	t.Helper()
	iss, err := utils.NewIssuer("test-secret", "trainfood-auth", time.Hour)
	require.NoError(t, err)
	return iss
}

func newTestAuthenticator(t *testing.T, s *memStore) *Authenticator {
	t.Helper()
	return NewAuthenticator(memUsers{s}, memAgents{s}, memSellers{s}, newTestIssuer(t), testCost, nil)
}
