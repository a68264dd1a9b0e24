// AngelaMos | 2026
// service.go

package affiliate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

const (
	idPrefix      = "AFF"
	idSpace       = 9999
	maxIDAttempts = 1000
)

var (
	ErrIDSpaceExhausted  = errors.New("no free affiliate id found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// IDSource yields the numeric part of new affiliate ids. It need not be
// cryptographically secure.
type IDSource interface {
	IntN(n int) int
}

type mathRandSource struct{}

func (mathRandSource) IntN(n int) int {
	return rand.IntN(n)
}

type Service struct {
	repo   Repository
	ids    IDSource
	logger *slog.Logger
}

func NewService(repo Repository, ids IDSource, logger *slog.Logger) *Service {
	if ids == nil {
		ids = mathRandSource{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:   repo,
		ids:    ids,
		logger: logger,
	}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.AffiliateInfo, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toAffiliateInfo(a), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.AffiliateInfo, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return toAffiliateInfo(a), nil
}

// Create inserts a pending Starter account under a fresh "AFF0001" style
// id, drawing new candidates until one is free.
func (s *Service) Create(
	ctx context.Context,
	name, email, passwordHash string,
) (*auth.AffiliateInfo, error) {
	for range maxIDAttempts {
		id := fmt.Sprintf("%s%04d", idPrefix, s.ids.IntN(idSpace)+1)

		exists, err := s.repo.ExistsByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		a := &Affiliate{
			ID:           id,
			Name:         name,
			Email:        email,
			PasswordHash: passwordHash,
			Status:       StatusPending,
			Tier:         tier.Starter,
		}

		err = s.repo.Create(ctx, a)
		if errors.Is(err, ErrIDTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return toAffiliateInfo(a), nil
	}

	return nil, fmt.Errorf("create affiliate: %w", ErrIDSpaceExhausted)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, id, passwordHash)
}

func (s *Service) GetProfile(ctx context.Context, id string) (*Affiliate, error) {
	return s.repo.GetByID(ctx, id)
}

// Approve activates a pending or suspended account.
func (s *Service) Approve(ctx context.Context, id string) (*Affiliate, error) {
	return s.transition(ctx, id, StatusActive, StatusPending, StatusSuspended)
}

// Suspend blocks further logins. Existing sessions stay valid until expiry.
func (s *Service) Suspend(ctx context.Context, id string) (*Affiliate, error) {
	return s.transition(ctx, id, StatusSuspended, StatusPending, StatusActive)
}

func (s *Service) transition(
	ctx context.Context,
	id string,
	to Status,
	from ...Status,
) (*Affiliate, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, st := range from {
		if a.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf(
			"%s -> %s: %w: %w",
			a.Status,
			to,
			core.ErrConflict,
			ErrInvalidTransition,
		)
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "affiliate status changed",
		"affiliate_id", id,
		"from", a.Status,
		"to", to,
	)

	a.Status = to
	return a, nil
}

func toAffiliateInfo(a *Affiliate) *auth.AffiliateInfo {
	return &auth.AffiliateInfo{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Status:       string(a.Status),
		Tier:         a.Tier.String(),
		Active:       a.IsActive(),
	}
}

var _ auth.AffiliateProvider = (*Service)(nil)
