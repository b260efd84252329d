package jwt

import (
	"errors"
	"time"

	"schoolhub/internal/authz"

	"github.com/golang-jwt/jwt/v5"
)

// Re-exported so callers can classify failures without importing the library.
var (
	ErrTokenExpired = jwt.ErrTokenExpired
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the wire shape of an access token.
type Claims struct {
	Email       string              `json:"email,omitempty"`
	Name        string              `json:"name,omitempty"`
	Tenant      string              `json:"tenant"`
	Phone       string              `json:"phone,omitempty"`
	Roles       []string            `json:"roles,omitempty"`
	Permissions []string            `json:"permissions,omitempty"`
	Extra       map[string][]string `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

// FromClaimSet packs a claim bag into token claims. Subject is the
// NameIdentifier; unknown claim types land in Extra.
func FromClaimSet(set authz.ClaimSet) Claims {
	var c Claims
	for _, claim := range set {
		switch claim.Type {
		case authz.ClaimNameIdentifier:
			c.Subject = claim.Value
		case authz.ClaimEmail:
			c.Email = claim.Value
		case authz.ClaimName:
			c.Name = claim.Value
		case authz.ClaimTenant:
			c.Tenant = claim.Value
		case authz.ClaimPhone:
			c.Phone = claim.Value
		case authz.ClaimRole:
			c.Roles = append(c.Roles, claim.Value)
		case authz.ClaimPermission:
			c.Permissions = append(c.Permissions, claim.Value)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string][]string)
			}
			c.Extra[string(claim.Type)] = append(c.Extra[string(claim.Type)], claim.Value)
		}
	}
	return c
}

// ClaimSet unpacks token claims back into a claim bag.
func (c *Claims) ClaimSet() authz.ClaimSet {
	set := authz.ClaimSet{
		authz.NewClaim(authz.ClaimNameIdentifier, c.Subject),
		authz.NewClaim(authz.ClaimEmail, c.Email),
		authz.NewClaim(authz.ClaimName, c.Name),
		authz.NewClaim(authz.ClaimTenant, c.Tenant),
		authz.NewClaim(authz.ClaimPhone, c.Phone),
	}
	for _, r := range c.Roles {
		set = append(set, authz.NewClaim(authz.ClaimRole, r))
	}
	for _, p := range c.Permissions {
		set = append(set, authz.PermissionClaim(p))
	}
	for t, values := range c.Extra {
		for _, v := range values {
			set = append(set, authz.NewClaim(authz.ClaimType(t), v))
		}
	}
	return set
}

// Manager signs and verifies HS256 access tokens with one symmetric key.
type Manager struct {
	secretKey     []byte
	tokenDuration time.Duration
	now           func() time.Time
}

// NewManager creates a Manager issuing tokens valid for tokenDuration.
func NewManager(secretKey string, tokenDuration time.Duration) *Manager {
	return &Manager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
		now:           time.Now,
	}
}

// WithClock replaces the time source; tests use it to mint expired tokens.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Generate signs an access token carrying set.
func (m *Manager) Generate(set authz.ClaimSet) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.tokenDuration)

	claims := FromClaimSet(set)
	claims.RegisteredClaims.IssuedAt = jwt.NewNumericDate(now)
	claims.RegisteredClaims.NotBefore = jwt.NewNumericDate(now)
	claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *Manager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.secretKey, nil
}

// Verify fully validates a token, lifetime included. An expired but well
// signed token yields an error matching ErrTokenExpired.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, err
		}
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseExpired checks only the signature and algorithm; lifetime, issuer and
// audience are ignored. Used to recover identity from a token being refreshed.
func (m *Manager) ParseExpired(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &Claims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, m.keyFunc); err != nil {
		return nil, errors.Join(ErrTokenInvalid, err)
	}
	return claims, nil
}
