// AngelaMos | 2026
// sessions.go

package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Create(_ context.Context, session *auth.Session) error {
	defer r.s.lock(false)()

	if err := r.s.fail("CreateSession"); err != nil {
		return err
	}

	if _, ok := r.s.data.affiliates[session.AffiliateID]; !ok {
		return fmt.Errorf("create session: %w: unknown affiliate", core.ErrPersistence)
	}

	r.s.data.sessions[session.TokenHash] = *session
	return nil
}

func (r *sessionRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*auth.Session, error) {
	defer r.s.lock(false)()

	if err := r.s.fail("FindByHash"); err != nil {
		return nil, err
	}

	session, ok := r.s.data.sessions[tokenHash]
	if !ok {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}
	return &session, nil
}

func (r *sessionRepo) DeleteByHash(_ context.Context, tokenHash string) error {
	defer r.s.lock(false)()

	if err := r.s.fail("DeleteByHash"); err != nil {
		return err
	}

	if _, ok := r.s.data.sessions[tokenHash]; !ok {
		return fmt.Errorf("delete session: %w", core.ErrNotFound)
	}
	delete(r.s.data.sessions, tokenHash)
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	defer r.s.lock(false)()

	if err := r.s.fail("DeleteExpired"); err != nil {
		return 0, err
	}

	var n int64
	for hash, session := range r.s.data.sessions {
		if !session.ExpiresAt.After(now) {
			delete(r.s.data.sessions, hash)
			n++
		}
	}
	return n, nil
}
