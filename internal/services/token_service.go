package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"schoolhub/internal/authz"
	"schoolhub/internal/models"
	apperrors "schoolhub/pkg/errors"
	"schoolhub/pkg/jwt"
	"schoolhub/pkg/logger"
	"schoolhub/pkg/metrics"

	"gorm.io/gorm"
)

// Messages returned to clients on rejected login or refresh.
const (
	MsgTenantNotActive     = "Tenant Subscription is not Active. Contact Administrator."
	MsgAuthNotSuccessful   = "Authentication no successful."
	MsgIncorrectCreds      = "Incorrect credentials."
	MsgUserNotActive       = "User not active. Contact Administrator."
	MsgSubscriptionExpired = "Subscription has expired. Contact Administrator."
	MsgInvalidTokenGiven   = "Invalid token provided. Failed to generate new token."
	MsgAuthFailed          = "Authentication failed."
	MsgInvalidToken        = "Invalid token."
)

const refreshTokenBytes = 32

// TokenRequest carries login credentials.
type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries the access token being replaced and the refresh
// token issued with it.
type RefreshTokenRequest struct {
	CurrentJwt             string     `json:"currentJwt"`
	CurrentRefreshToken    string     `json:"currentRefreshToken"`
	RefreshTokenExpiryDate *time.Time `json:"refreshTokenExpiryDate,omitempty"`
}

// TokenResponse is an issued access and refresh token pair.
type TokenResponse struct {
	Jwt                    string    `json:"jwt"`
	JwtExpiryTime          time.Time `json:"jwtExpiryTime"`
	RefreshToken           string    `json:"refreshToken"`
	RefreshTokenExpiryTime time.Time `json:"refreshTokenExpiryTime"`
}

// TokenService issues access and refresh tokens for users of a tenant.
type TokenService struct {
	users        UserDirectory
	roles        RoleDirectory
	tokens       *jwt.Manager
	rootTenantID string
	refreshTTL   time.Duration
	now          func() time.Time
}

// NewTokenService creates a TokenService. Refresh tokens live for refreshTTL.
func NewTokenService(users UserDirectory, roles RoleDirectory, tokens *jwt.Manager, rootTenantID string, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		users:        users,
		roles:        roles,
		tokens:       tokens,
		rootTenantID: rootTenantID,
		refreshTTL:   refreshTTL,
		now:          time.Now,
	}
}

// Login checks the credentials against tenant and issues a token pair. Checks
// run in a fixed order and the first failure wins; nothing is written unless
// every check passes.
func (s *TokenService) Login(ctx context.Context, tenant *models.Tenant, req TokenRequest) (*TokenResponse, error) {
	resp, err := s.login(ctx, tenant, req)
	observe(metrics.OpLogin, err)
	return resp, err
}

func (s *TokenService) login(ctx context.Context, tenant *models.Tenant, req TokenRequest) (*TokenResponse, error) {
	if tenant == nil || !tenant.IsActive {
		return nil, s.reject(tenant, req.Username, MsgTenantNotActive)
	}

	user, err := s.users.FindByUsername(ctx, tenant, req.Username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.reject(tenant, req.Username, MsgAuthNotSuccessful)
	}
	if err != nil {
		return nil, err
	}

	if !user.CheckPassword(req.Password) {
		return nil, s.reject(tenant, req.Username, MsgIncorrectCreds)
	}

	if !user.IsActive {
		return nil, s.reject(tenant, req.Username, MsgUserNotActive)
	}

	if tenant.ID != s.rootTenantID && tenant.SubscriptionExpired(s.now().UTC()) {
		return nil, s.reject(tenant, req.Username, MsgSubscriptionExpired)
	}

	resp, err := s.issue(ctx, tenant, user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, tenant, user.ID, resp.RefreshToken, resp.RefreshTokenExpiryTime); err != nil {
		return nil, err
	}

	logger.ForTenant(tenant.ID).WithField("user", user.Username).Info("Login succeeded")
	return resp, nil
}

// Refresh trades an access token, expired or not, plus the current refresh
// token for a new pair. The stored refresh token is swapped atomically, so
// of two concurrent refreshes with the same token only one succeeds.
func (s *TokenService) Refresh(ctx context.Context, tenant *models.Tenant, req RefreshTokenRequest) (*TokenResponse, error) {
	resp, err := s.refresh(ctx, tenant, req)
	observe(metrics.OpRefresh, err)
	return resp, err
}

func (s *TokenService) refresh(ctx context.Context, tenant *models.Tenant, req RefreshTokenRequest) (*TokenResponse, error) {
	if req.CurrentJwt == "" {
		return nil, s.reject(tenant, "", MsgInvalidTokenGiven)
	}

	claims, err := s.tokens.ParseExpired(req.CurrentJwt)
	if err != nil {
		return nil, s.reject(tenant, "", MsgInvalidTokenGiven)
	}

	email := claims.Email
	if email == "" || tenant == nil || (claims.Tenant != "" && claims.Tenant != tenant.ID) {
		return nil, s.reject(tenant, email, MsgAuthFailed)
	}

	user, err := s.users.FindByEmail(ctx, tenant, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.reject(tenant, email, MsgAuthFailed)
	}
	if err != nil {
		return nil, err
	}

	if !user.RefreshTokenValid(req.CurrentRefreshToken, s.now().UTC()) {
		return nil, s.reject(tenant, email, MsgInvalidToken)
	}

	resp, err := s.issue(ctx, tenant, user)
	if err != nil {
		return nil, err
	}
	swapped, err := s.users.RotateRefreshToken(ctx, tenant, user.ID, req.CurrentRefreshToken, resp.RefreshToken, resp.RefreshTokenExpiryTime)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, s.reject(tenant, email, MsgInvalidToken)
	}

	logger.ForTenant(tenant.ID).WithField("user", user.Username).Info("Token refreshed")
	return resp, nil
}

// issue builds a token pair for user without persisting anything.
func (s *TokenService) issue(ctx context.Context, tenant *models.Tenant, user *models.User) (*TokenResponse, error) {
	claims, err := s.ClaimsFor(ctx, tenant, user)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Generate(claims)
	if err != nil {
		return nil, err
	}

	refresh, err := newRefreshToken()
	if err != nil {
		return nil, err
	}

	return &TokenResponse{
		Jwt:                    token,
		JwtExpiryTime:          expiresAt,
		RefreshToken:           refresh,
		RefreshTokenExpiryTime: s.now().UTC().Add(s.refreshTTL),
	}, nil
}

// ClaimsFor assembles the claims embedded in user's access token: identity,
// tenant, one claim per role, the user's own claims and every claim of every
// role, duplicates collapsed.
func (s *TokenService) ClaimsFor(ctx context.Context, tenant *models.Tenant, user *models.User) (authz.ClaimSet, error) {
	identity := authz.ClaimSet{
		authz.NewClaim(authz.ClaimNameIdentifier, user.ID.String()),
		authz.NewClaim(authz.ClaimEmail, user.Email),
		authz.NewClaim(authz.ClaimName, user.FirstName),
		authz.NewClaim(authz.ClaimTenant, tenant.ID),
		authz.NewClaim(authz.ClaimPhone, user.PhoneNumber),
	}

	roleNames, err := s.users.RoleNames(ctx, tenant, user)
	if err != nil {
		return nil, err
	}

	var roleClaims, permissionClaims authz.ClaimSet
	for _, name := range roleNames {
		roleClaims = append(roleClaims, authz.NewClaim(authz.ClaimRole, name))

		role, err := s.roles.FindByName(ctx, tenant, name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		granted, err := s.roles.Claims(ctx, tenant, role)
		if err != nil {
			return nil, err
		}
		permissionClaims = append(permissionClaims, granted...)
	}

	userClaims, err := s.users.Claims(ctx, tenant, user)
	if err != nil {
		return nil, err
	}

	return identity.Union(roleClaims, userClaims, permissionClaims), nil
}

func (s *TokenService) reject(tenant *models.Tenant, username, message string) error {
	tenantID := ""
	if tenant != nil {
		tenantID = tenant.ID
	}
	logger.ForTenant(tenantID).WithField("user", username).Warnf("Token request rejected: %s", message)
	return apperrors.Unauthorized(message)
}

func observe(op string, err error) {
	switch {
	case err == nil:
		metrics.ObserveToken(op, metrics.OutcomeSuccess)
	case apperrors.IsKind(err, apperrors.KindUnauthorized):
		metrics.ObserveToken(op, metrics.OutcomeRejected)
	default:
		metrics.ObserveToken(op, metrics.OutcomeError)
	}
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
