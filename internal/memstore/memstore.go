// AngelaMos | 2026
// memstore.go

// Package memstore is an in-memory implementation of the affiliate, session
// and ledger repositories. All three share one lock, and Within gives
// all-or-nothing semantics by restoring a snapshot when the callback fails.
// It backs service tests and local runs without Postgres.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/ledger"
)

type state struct {
	affiliates map[string]affiliate.Affiliate
	sessions   map[string]auth.Session
	clicks     []ledger.Click
	sales      []ledger.Sale
}

func (s state) clone() state {
	out := state{
		affiliates: make(map[string]affiliate.Affiliate, len(s.affiliates)),
		sessions:   make(map[string]auth.Session, len(s.sessions)),
		clicks:     append([]ledger.Click(nil), s.clicks...),
		sales:      append([]ledger.Sale(nil), s.sales...),
	}
	for k, v := range s.affiliates {
		out.affiliates[k] = v
	}
	for k, v := range s.sessions {
		out.sessions[k] = v
	}
	return out
}

type Store struct {
	mu       sync.Mutex
	data     state
	clock    core.Clock
	failures map[string]error
}

func New(clock core.Clock) *Store {
	if clock == nil {
		clock = core.SystemClock{}
	}

	return &Store{
		data: state{
			affiliates: make(map[string]affiliate.Affiliate),
			sessions:   make(map[string]auth.Session),
		},
		clock:    clock,
		failures: make(map[string]error),
	}
}

// FailOn makes the named repository operation (e.g. "ApplySale") return a
// persistence error until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(op string) error {
	if err, ok := s.failures[op]; ok {
		return fmt.Errorf("%s: %w: %w", op, core.ErrPersistence, err)
	}
	return nil
}

func (s *Store) Affiliates() affiliate.Repository {
	return &affiliateRepo{s: s}
}

func (s *Store) Sessions() auth.Repository {
	return &sessionRepo{s: s}
}

func (s *Store) Ledger() ledger.Repository {
	return &ledgerRepo{s: s}
}

// Within runs fn with repositories bound to this store while holding the
// store lock. Any error from fn restores the state seen on entry.
func (s *Store) Within(
	ctx context.Context,
	fn func(affiliates affiliate.Repository, entries ledger.Repository) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w: %w", core.ErrPersistence, err)
	}

	snapshot := s.data.clone()
	err := fn(&affiliateRepo{s: s, tx: true}, &ledgerRepo{s: s, tx: true})
	if err != nil {
		s.data = snapshot
		return err
	}

	if err := s.fail("Commit"); err != nil {
		s.data = snapshot
		return err
	}

	return nil
}

// Put stores a copy of a, replacing any affiliate with the same id.
func (s *Store) Put(a affiliate.Affiliate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock.Now()
		a.UpdatedAt = a.CreatedAt
	}
	s.data.affiliates[a.ID] = a
}

func (s *Store) Get(id string) (affiliate.Affiliate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.data.affiliates[id]
	return a, ok
}

func (s *Store) Sales(affiliateID string) []ledger.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ledger.Sale
	for _, sale := range s.data.sales {
		if sale.AffiliateID == affiliateID {
			out = append(out, sale)
		}
	}
	return out
}

func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.sessions)
}

func (s *Store) lock(tx bool) func() {
	if tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
