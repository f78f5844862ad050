package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/pharmacy-inventory/internal/access"
	"github.com/angelmondragon/pharmacy-inventory/internal/users"
	pkgAuth "github.com/angelmondragon/pharmacy-inventory/pkg/auth"
	"github.com/angelmondragon/pharmacy-inventory/pkg/auth/session"
	"github.com/angelmondragon/pharmacy-inventory/pkg/config"
	"github.com/angelmondragon/pharmacy-inventory/pkg/db/models"
	pkgerrors "github.com/angelmondragon/pharmacy-inventory/pkg/errors"
	"github.com/angelmondragon/pharmacy-inventory/pkg/metrics"
)

const invalidCredentialsMessage = "invalid username or password"

// Service signs users in and out and resolves session tokens to principals.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*access.Principal, error)
}

type accountLookup interface {
	AuthenticateLookup(ctx context.Context, username string) (*models.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	RehashPassword(ctx context.Context, userID uuid.UUID, password string) error
}

type passwordVerifier interface {
	Verify(password, encoded string) (bool, error)
	VerifyMissing(password string) bool
	NeedsRehash(encoded string) bool
}

type sessionManager interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Resolve(ctx context.Context, accessID string) (uuid.UUID, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts  accountLookup
	Passwords passwordVerifier
	Sessions  sessionManager
	JWTConfig config.JWTConfig
	Metrics   *metrics.DomainMetrics
	Now       func() time.Time
}

type service struct {
	accounts  accountLookup
	passwords passwordVerifier
	sessions  sessionManager
	jwtCfg    config.JWTConfig
	metrics   *metrics.DomainMetrics
	now       func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account lookup is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password verifier is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		accounts:  params.Accounts,
		passwords: params.Passwords,
		sessions:  params.Sessions,
		jwtCfg:    params.JWTConfig,
		metrics:   params.Metrics,
		now:       now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	result, err := s.login(ctx, req)
	s.metrics.Login(err)
	return result, err
}

func (s *service) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	accessID, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	now := s.now().UTC()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		JTI:      accessID,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, accessID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.jwtCfg.TokenTTL()),
		User:      users.FromModel(user),
	}, nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	user, err := s.accounts.AuthenticateLookup(ctx, username)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.passwords.VerifyMissing(password)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}

	valid, err := s.passwords.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if s.passwords.NeedsRehash(user.PasswordHash) {
		// the login stands even if the upgrade fails; it is retried next time
		_ = s.accounts.RehashPassword(ctx, user.ID, password)
	}
	return user, nil
}

// Logout revokes the session behind token. Unreadable or already revoked
// tokens are not an error.
func (s *service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, token)
	if err != nil || claims.ID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, claims.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Authenticate turns a session token into a principal. Roles are read from
// the store on every call so elevation and deletion apply immediately.
func (s *service) Authenticate(ctx context.Context, token string) (*access.Principal, error) {
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token")
	}

	userID, err := s.sessions.Resolve(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve session")
	}
	if userID != claims.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session does not match token")
	}

	user, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			_ = s.sessions.Revoke(ctx, claims.ID)
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account no longer exists")
		}
		return nil, err
	}

	principal := &access.Principal{
		UserID:   user.ID,
		Username: user.Username,
	}
	for _, role := range user.Roles {
		principal.Roles = append(principal.Roles, role.Name)
	}
	return principal, nil
}
