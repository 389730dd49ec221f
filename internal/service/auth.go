package service

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/model"
	"github.com/iliyamo/trainfood-auth/internal/repository"
	"github.com/iliyamo/trainfood-auth/internal/utils"
	"github.com/iliyamo/trainfood-auth/internal/validator"
)

// Outcome is the result of resolving a set of credentials.  It is either
// Authenticated or Rejected.
type Outcome interface{ outcome() }

// Authenticated carries the resolved principal and the role its token is
// issued for.
type Authenticated struct {
	Principal model.Principal
	Role      string
}

// Rejected means no principal matched.  Reason is the same for every cause.
type Rejected struct {
	Reason string
}

func (Authenticated) outcome() {}
func (Rejected) outcome()      {}

// probe tries one principal kind.  ok=false hands over to the next probe.
type probe func(ctx context.Context, c validator.SanitizedCredentials) (out Outcome, ok bool, err error)

// Registration is the result of a successful sign-up.
type Registration struct {
	Principal model.Principal
	Role      string
	Token     utils.AccessToken
	Message   string
}

// Authenticator resolves logins against the credential stores and creates
// new accounts.
type Authenticator struct {
	users   UserStore
	agents  DeliveryStore
	sellers SellerStore
	issuer  *utils.Issuer
	cost    int
	log     logging.Logger

	probes    []probe
	dummyHash string
}

// NewAuthenticator wires the stores.  cost is the bcrypt cost used for new
// accounts.
func NewAuthenticator(users UserStore, agents DeliveryStore, sellers SellerStore, issuer *utils.Issuer, cost int, log logging.Logger) *Authenticator {
	if log == nil {
		log = logging.Nop()
	}
	a := &Authenticator{
		users:   users,
		agents:  agents,
		sellers: sellers,
		issuer:  issuer,
		cost:    cost,
		log:     log,
	}
	// Compared against when no user row exists so unknown emails cost one
	// bcrypt comparison like wrong passwords do.
	a.dummyHash, _ = utils.HashPassword("trainfood-unknown-account", cost)
	a.probes = []probe{a.probeDeliveryAgent, a.probeUser}
	return a
}

// ResolveLogin tries each principal kind in order and returns the first
// match.  The error return is reserved for store failures.
func (a *Authenticator) ResolveLogin(ctx context.Context, c validator.SanitizedCredentials) (Outcome, error) {
	for _, p := range a.probes {
		out, ok, err := p(ctx, c)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
	}
	return Rejected{Reason: MsgInvalidCredentials}, nil
}

// probeDeliveryAgent matches delivery agents first.  A known agent email
// with a wrong password falls through to the user probe.
func (a *Authenticator) probeDeliveryAgent(ctx context.Context, c validator.SanitizedCredentials) (Outcome, bool, error) {
	agent, err := a.agents.FindByEmail(ctx, c.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dependency("find_delivery_agent", err)
	}
	if !utils.VerifyPassword(agent.PasswordHash, c.Password) {
		return nil, false, nil
	}
	return Authenticated{Principal: model.DeliveryPrincipal{Agent: agent}, Role: model.RoleDeliveryAgent}, true, nil
}

// probeUser is the last probe and always resolves.
func (a *Authenticator) probeUser(ctx context.Context, c validator.SanitizedCredentials) (Outcome, bool, error) {
	u, err := a.users.FindByEmail(ctx, c.Email)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword(a.dummyHash, c.Password)
		return Rejected{Reason: MsgInvalidCredentials}, true, nil
	}
	if err != nil {
		return nil, false, dependency("find_user", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, c.Password) {
		return Rejected{Reason: MsgInvalidCredentials}, true, nil
	}
	p := model.UserPrincipal{User: u}
	if u.Role == model.RoleSeller {
		p.Seller = a.sellerProfile(ctx, u)
	}
	return Authenticated{Principal: p, Role: u.Role}, true, nil
}

// sellerProfile is best effort: authentication already succeeded.
func (a *Authenticator) sellerProfile(ctx context.Context, u model.User) *model.SellerProfile {
	sp, err := a.sellers.FindByEmail(ctx, u.Email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		a.log.Warn(ctx, "seller profile missing", "user_id", u.ID)
		return nil
	case err != nil:
		a.log.Warn(ctx, "seller profile lookup failed", "user_id", u.ID, "error", err)
		return nil
	}
	return &sp
}

// Issue signs an access token for an authenticated principal.
func (a *Authenticator) Issue(out Authenticated) (utils.AccessToken, error) {
	tok, err := a.issuer.Issue(out.Principal, out.Role)
	if err != nil {
		return utils.AccessToken{}, dependency("issue_token", err)
	}
	return tok, nil
}

// Register validates in, creates the account and issues its first token.
func (a *Authenticator) Register(ctx context.Context, in validator.RegistrationInput) (Registration, error) {
	in = in.Normalize()
	if err := validator.ValidateRegistration(in); err != nil {
		return Registration{}, err
	}
	if in.Role == model.RoleDeliveryAgent {
		return a.registerAgent(ctx, in)
	}
	return a.registerUser(ctx, in)
}

func (a *Authenticator) registerAgent(ctx context.Context, in validator.RegistrationInput) (Registration, error) {
	_, err := a.agents.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return Registration{}, conflict(MsgAgentExists)
	case !errors.Is(err, repository.ErrNotFound):
		return Registration{}, dependency("find_delivery_agent", err)
	}
	hash, err := utils.HashPassword(in.Password, a.cost)
	if err != nil {
		return Registration{}, dependency("hash_password", err)
	}
	agent := model.DeliveryAgent{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        repository.DefaultAgentPhone,
		IsAvailable:  false,
	}
	id, err := a.agents.Create(ctx, agent)
	if errors.Is(err, repository.ErrEmailExists) {
		return Registration{}, conflict(MsgAgentExists)
	}
	if err != nil {
		return Registration{}, dependency("create_delivery_agent", err)
	}
	agent.ID = id
	return a.finish(model.DeliveryPrincipal{Agent: agent}, model.RoleDeliveryAgent, "Delivery agent registered successfully")
}

func (a *Authenticator) registerUser(ctx context.Context, in validator.RegistrationInput) (Registration, error) {
	_, err := a.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return Registration{}, conflict(MsgUserExists)
	case !errors.Is(err, repository.ErrNotFound):
		return Registration{}, dependency("find_user", err)
	}
	hash, err := utils.HashPassword(in.Password, a.cost)
	if err != nil {
		return Registration{}, dependency("hash_password", err)
	}
	u := model.User{Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: hash}

	var (
		id     uint64
		seller *model.SellerProfile
	)
	if in.Role == model.RoleSeller {
		sp := model.SellerProfile{
			Name:           in.Name,
			Email:          in.Email,
			RestaurantName: in.RestaurantName,
			Station:        in.Station,
			IsActive:       true,
			IsApproved:     false,
		}
		id, err = a.users.CreateSeller(ctx, u, sp)
		sp.UserID = id
		seller = &sp
	} else {
		id, err = a.users.Create(ctx, u)
	}
	if errors.Is(err, repository.ErrEmailExists) {
		return Registration{}, conflict(MsgUserExists)
	}
	if err != nil {
		return Registration{}, dependency("create_user", err)
	}
	u.ID = id
	return a.finish(model.UserPrincipal{User: u, Seller: seller}, u.Role, "Registration successful")
}

func (a *Authenticator) finish(p model.Principal, role, msg string) (Registration, error) {
	tok, err := a.Issue(Authenticated{Principal: p, Role: role})
	if err != nil {
		return Registration{}, err
	}
	return Registration{Principal: p, Role: role, Token: tok, Message: msg}, nil
}

// Lookup loads the principal a verified token refers to.  The role claim
// selects the store.  A subject that no longer exists, or whose role
// changed since issuance, is reported with CodeUnknownSubject.
func (a *Authenticator) Lookup(ctx context.Context, claims *utils.Claims) (model.Principal, string, error) {
	id, err := claims.SubjectID()
	if err != nil {
		return nil, "", unknownSubject(err)
	}
	if claims.Role == model.RoleDeliveryAgent {
		agent, err := a.agents.FindByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", unknownSubject(err)
		}
		if err != nil {
			return nil, "", dependency("find_delivery_agent", err)
		}
		return model.DeliveryPrincipal{Agent: agent}, model.RoleDeliveryAgent, nil
	}
	u, err := a.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", unknownSubject(err)
	}
	if err != nil {
		return nil, "", dependency("find_user", err)
	}
	if u.Role != claims.Role {
		return nil, "", unknownSubject(errors.New("role changed"))
	}
	return model.UserPrincipal{User: u}, u.Role, nil
}

func unknownSubject(err error) error {
	return oops.Code(CodeUnknownSubject).Public("Invalid token").Wrap(err)
}
