package utils // package utils provides helpers for token issuance, hashing and OTPs

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

	"github.com/iliyamo/trainfood-auth/internal/model"
)

// ErrUnknownRole is returned when a token is requested for a role outside
// the issuable set.
var ErrUnknownRole = errors.New("unknown role")

// ErrNoSigningKey is returned by NewIssuer when the secret is empty.
var ErrNoSigningKey = errors.New("jwt signing secret is empty")

// issuableRoles lists the roles a token may carry.
var issuableRoles = map[string]bool{
	model.RoleCustomer:      true,
	model.RoleSeller:        true,
	model.RoleDeliveryAgent: true,
	model.RoleAdmin:         true,
}

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the payload of an access token: the standard claims plus the
// principal's role.  The subject is the principal's numeric ID as a string;
// the role tells which store the ID belongs to.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// SubjectID parses the numeric subject.
func (c *Claims) SubjectID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// Issuer mints and verifies HS256 access tokens.  Issuance is pure: it never
// touches storage.
type Issuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer.  An empty secret is a configuration error the
// process must not start with.
func NewIssuer(secret, issuer string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrNoSigningKey
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for principal p carrying role.
func (i *Issuer) Issue(p model.Principal, role string) (AccessToken, error) {
	if !issuableRoles[role] {
		return AccessToken{}, ErrUnknownRole
	}
	now := i.now().UTC()
	exp := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   strconv.FormatUint(p.SubjectID(), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Parse verifies raw and returns its claims.  Tokens signed with another
// algorithm, by another issuer, expired, or carrying an unknown role are
// rejected.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if !issuableRoles[claims.Role] {
		return nil, ErrUnknownRole
	}
	return claims, nil
}
