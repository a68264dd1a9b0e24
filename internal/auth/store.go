// AngelaMos | 2026
// store.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/metrics"
)

const DefaultSessionTTL = 30 * 24 * time.Hour

type StoreConfig struct {
	TTL          time.Duration
	PurgeOnIssue bool
	Clock        core.Clock
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
}

// SessionStore issues and validates opaque bearer tokens. Every validation
// reads persisted state; nothing is cached in process.
type SessionStore struct {
	repo         Repository
	ttl          time.Duration
	purgeOnIssue bool
	clock        core.Clock
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

func NewSessionStore(repo Repository, cfg StoreConfig) *SessionStore {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = core.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &SessionStore{
		repo:         repo,
		ttl:          cfg.TTL,
		purgeOnIssue: cfg.PurgeOnIssue,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

type IssuedSession struct {
	Token     string
	ExpiresAt time.Time
}

// Issue creates a session with an absolute expiry of now + TTL. Expired
// sessions are purged first when configured; a purge failure is logged and
// does not block issuance.
func (s *SessionStore) Issue(
	ctx context.Context,
	affiliateID, userAgent, ipAddress string,
) (*IssuedSession, error) {
	if s.purgeOnIssue {
		if _, err := s.Purge(ctx); err != nil {
			s.logger.WarnContext(ctx, "purge expired sessions failed",
				"error", err,
			)
		}
	}

	token, err := core.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	now := s.clock.Now()
	session := &Session{
		ID:          uuid.New().String(),
		AffiliateID: affiliateID,
		TokenHash:   core.HashToken(token),
		UserAgent:   userAgent,
		IPAddress:   ipAddress,
		ExpiresAt:   now.Add(s.ttl),
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	return &IssuedSession{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Validate returns the live session for token. Unknown and expired tokens
// both yield ErrSessionInvalidOrExpired.
func (s *SessionStore) Validate(
	ctx context.Context,
	token string,
) (*Session, error) {
	if token == "" {
		return nil, ErrSessionInvalidOrExpired
	}

	session, err := s.repo.FindByHash(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrSessionInvalidOrExpired
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}

	if session.IsExpired(s.clock.Now()) {
		return nil, ErrSessionInvalidOrExpired
	}

	return session, nil
}

func (s *SessionStore) Revoke(ctx context.Context, token string) error {
	err := s.repo.DeleteByHash(ctx, core.HashToken(token))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Purge deletes every session whose expiry is at or before now.
func (s *SessionStore) Purge(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	s.metrics.ObservePurge(n)
	return n, nil
}
