package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/policy"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthService verifies credentials, issues session tokens, and answers
// the external access check.
type AuthService struct {
	accounts repository.AccountRepository
	tokens   *auth.TokenManager
	policy   *policy.Evaluator
	recorder audit.Recorder
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	Tokens      *auth.TokenManager
	Policy      *policy.Evaluator
	Recorder    audit.Recorder
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts: deps.AccountRepo,
		tokens:   deps.Tokens,
		policy:   deps.Policy,
		recorder: deps.Recorder,
	}
}

// LoginResult carries the issued token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *domain.Account
}

// ExternalAccessResult is the discriminated outcome of the external check.
type ExternalAccessResult struct {
	Granted bool
	Reason  string
}

// Login authenticates a username (case-insensitive) and password against
// an active account and issues a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	account, err := s.authenticate(ctx, username, password)
	if err != nil {
		s.recorder.Record(audit.KindLoginFailed, username, "failed login attempt")
		return nil, err
	}
	token, expiresAt, err := s.tokens.GenerateToken(account)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.recorder.Record(audit.KindLogin, account.Username, "logged in")
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// Logout records the session end; the token itself simply expires.
func (s *AuthService) Logout(actor *domain.Account) {
	s.recorder.Record(audit.KindLogout, actor.Username, "logged out")
}

// VerifyExternalAccess checks credentials for the external portal.
// Denials carry a category reason, never the underlying detail.
func (s *AuthService) VerifyExternalAccess(ctx context.Context, username, password string) (*ExternalAccessResult, error) {
	account, err := s.authenticate(ctx, username, password)
	if err != nil {
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "UNAUTHORIZED" {
			s.recorder.Record(audit.KindExternalAccess, username, "was denied external access (credentials)")
			return &ExternalAccessResult{Granted: false, Reason: "invalid credentials"}, nil
		}
		return nil, err
	}
	if !s.policy.CanUseExternalAccess(account) {
		s.recorder.Record(audit.KindExternalAccess, account.Username, "was denied external access (not enabled)")
		return &ExternalAccessResult{Granted: false, Reason: "external access not enabled"}, nil
	}
	s.recorder.Record(audit.KindExternalAccess, account.Username, "was granted external access")
	return &ExternalAccessResult{Granted: true, Reason: ""}, nil
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	if username == "" || password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	account, err := s.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if !account.IsActive {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return account, nil
}
