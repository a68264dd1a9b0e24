// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/metrics"
	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
	"github.com/carterperez-dev/affiliate-backend/internal/notify"
)

var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAccountNotActive        = errors.New("account not active")
	ErrSessionInvalidOrExpired = errors.New("session invalid or expired")
	ErrDuplicateEmail          = errors.New("email already registered")
)

type AffiliateInfo struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       string
	Tier         string
	Active       bool
}

// AffiliateProvider is the account store behind authentication. Create owns
// id generation and reports a taken email as core.ErrDuplicateKey.
type AffiliateProvider interface {
	GetByEmail(ctx context.Context, email string) (*AffiliateInfo, error)
	GetByID(ctx context.Context, id string) (*AffiliateInfo, error)
	Create(
		ctx context.Context,
		name, email, passwordHash string,
	) (*AffiliateInfo, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type ServiceConfig struct {
	AdminEmail string
	Notifier   notify.Notifier
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

type Service struct {
	sessions   *SessionStore
	provider   AffiliateProvider
	adminEmail string
	notifier   notify.Notifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewService(
	sessions *SessionStore,
	provider AffiliateProvider,
	cfg ServiceConfig,
) *Service {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Service{
		sessions:   sessions,
		provider:   provider,
		adminEmail: cfg.AdminEmail,
		notifier:   cfg.Notifier,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks, in order: the account exists, it is active, the password
// matches. Unknown email and wrong password are indistinguishable.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	userAgent, ipAddress string,
) (*LoginResponse, error) {
	info, err := s.provider.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			s.metrics.ObserveLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get affiliate: %w", err)
	}

	if !info.Active {
		s.metrics.ObserveLogin("not_active")
		return nil, ErrAccountNotActive
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&info.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		s.metrics.ObserveLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.provider.UpdatePassword(ctx, info.ID, newHash); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed",
				"affiliate_id", info.ID,
				"error", err,
			)
		}
	}

	issued, err := s.sessions.Issue(ctx, info.ID, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin("success")

	return &LoginResponse{
		AffiliateID: info.ID,
		Name:        info.Name,
		Email:       info.Email,
		Token:       issued.Token,
		TokenType:   "Bearer",
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

// Register creates a pending account and alerts the admin. It does not
// activate the account or issue a session.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*RegisterResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	info, err := s.provider.Create(
		ctx,
		strings.TrimSpace(req.Name),
		normalizeEmail(req.Email),
		passwordHash,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create affiliate: %w", err)
	}

	s.metrics.ObserveRegistration()

	s.notifier.Notify(ctx, notify.AdminRegistration(
		s.adminEmail,
		info.ID,
		info.Name,
		info.Email,
	))

	return &RegisterResponse{
		AffiliateID: info.ID,
		Status:      info.Status,
		Message:     "Registration successful. Your account is pending approval.",
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ValidateSession resolves a bearer token to its affiliate. A session whose
// affiliate no longer resolves is treated as invalid.
func (s *Service) ValidateSession(
	ctx context.Context,
	token string,
) (*AffiliateInfo, error) {
	session, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	info, err := s.provider.GetByID(ctx, session.AffiliateID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrSessionInvalidOrExpired
		}
		return nil, fmt.Errorf("get affiliate: %w", err)
	}

	return info, nil
}

func (s *Service) VerifySession(
	ctx context.Context,
	token string,
) (*middleware.Principal, error) {
	info, err := s.ValidateSession(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionInvalidOrExpired) {
			return nil, fmt.Errorf("%w: %w", middleware.ErrSessionRejected, err)
		}
		return nil, err
	}

	return &middleware.Principal{
		AffiliateID: info.ID,
		Name:        info.Name,
		Tier:        info.Tier,
	}, nil
}

func (s *Service) GetCurrentAffiliate(
	ctx context.Context,
	affiliateID string,
) (*AffiliateResponse, error) {
	if affiliateID == "" {
		return nil, fmt.Errorf("get current affiliate: %w", core.ErrUnauthorized)
	}

	info, err := s.provider.GetByID(ctx, affiliateID)
	if err != nil {
		return nil, err
	}

	return &AffiliateResponse{
		ID:     info.ID,
		Name:   info.Name,
		Email:  info.Email,
		Status: info.Status,
		Tier:   info.Tier,
	}, nil
}

var _ middleware.SessionVerifier = (*Service)(nil)
