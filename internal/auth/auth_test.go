// AngelaMos | 2026
// auth_test.go

package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/carterperez-dev/affiliate-backend/internal/affiliate"
	"github.com/carterperez-dev/affiliate-backend/internal/auth"
	"github.com/carterperez-dev/affiliate-backend/internal/core"
	"github.com/carterperez-dev/affiliate-backend/internal/memstore"
	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
	"github.com/carterperez-dev/affiliate-backend/internal/notify"
	"github.com/carterperez-dev/affiliate-backend/internal/tier"
)

const testPassword = "correct-horse-battery"

var (
	testHash    string
	quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	epoch       = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
)

func TestMain(m *testing.M) {
	hash, err := core.HashPassword(testPassword)
	if err != nil {
		panic(err)
	}
	testHash = hash

	goleak.VerifyTestMain(m)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) messages() []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Message(nil), n.msgs...)
}

type fixture struct {
	store    *memstore.Store
	clock    *core.ManualClock
	sessions *auth.SessionStore
	service  *auth.Service
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := core.NewManualClock(epoch)
	store := memstore.New(clock)
	sessions := auth.NewSessionStore(store.Sessions(), auth.StoreConfig{
		TTL:          auth.DefaultSessionTTL,
		PurgeOnIssue: true,
		Clock:        clock,
		Logger:       quietLogger,
	})
	affiliates := affiliate.NewService(store.Affiliates(), nil, quietLogger)
	notifier := &recordingNotifier{}
	service := auth.NewService(sessions, affiliates, auth.ServiceConfig{
		AdminEmail: "admin@example.com",
		Notifier:   notifier,
		Logger:     quietLogger,
	})

	return &fixture{
		store:    store,
		clock:    clock,
		sessions: sessions,
		service:  service,
		notifier: notifier,
	}
}

func (f *fixture) seed(id, email string, status affiliate.Status) {
	f.store.Put(affiliate.Affiliate{
		ID:           id,
		Name:         "Affiliate " + id,
		Email:        email,
		PasswordHash: testHash,
		Status:       status,
		Tier:         tier.Starter,
	})
}

func TestSessionExpiryWindow(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	issued, err := f.sessions.Issue(ctx, "AFF0001", "test-agent", "127.0.0.1")
	require.NoError(t, err)
	assert.Len(t, issued.Token, 64)
	assert.Equal(t, epoch.Add(30*24*time.Hour), issued.ExpiresAt)

	f.clock.Set(epoch.Add(29 * 24 * time.Hour))
	session, err := f.sessions.Validate(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "AFF0001", session.AffiliateID)

	f.clock.Set(epoch.Add(31 * 24 * time.Hour))
	_, expiredErr := f.sessions.Validate(ctx, issued.Token)
	require.ErrorIs(t, expiredErr, auth.ErrSessionInvalidOrExpired)

	_, unknownErr := f.sessions.Validate(ctx, "deadbeef")
	require.ErrorIs(t, unknownErr, auth.ErrSessionInvalidOrExpired)

	assert.Equal(t, expiredErr.Error(), unknownErr.Error())
}

func TestSessionExpiresExactlyAtBoundary(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	issued, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)

	f.clock.Set(issued.ExpiresAt.Add(-time.Nanosecond))
	_, err = f.sessions.Validate(ctx, issued.Token)
	require.NoError(t, err)

	f.clock.Set(issued.ExpiresAt)
	_, err = f.sessions.Validate(ctx, issued.Token)
	require.ErrorIs(t, err, auth.ErrSessionInvalidOrExpired)
}

func TestIssuePurgesExpiredSessions(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	_, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	_, err = f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.SessionCount())

	f.clock.Advance(31 * 24 * time.Hour)
	_, err = f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.SessionCount())
}

func TestIssueSurvivesPurgeFailure(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	f.store.FailOn("DeleteExpired", errors.New("disk full"))

	issued, err := f.sessions.Issue(context.Background(), "AFF0001", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
}

func TestMultipleConcurrentSessions(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	first, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	second, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	_, err = f.sessions.Validate(ctx, first.Token)
	require.NoError(t, err)
	_, err = f.sessions.Validate(ctx, second.Token)
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	f.seed("AFF0002", "pending@example.com", affiliate.StatusPending)
	f.seed("AFF0003", "suspended@example.com", affiliate.StatusSuspended)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"unknown email", "nobody@example.com", testPassword, auth.ErrInvalidCredentials},
		{"pending account", "pending@example.com", testPassword, auth.ErrAccountNotActive},
		{"suspended account", "suspended@example.com", "wrong-password", auth.ErrAccountNotActive},
		{"wrong password", "ann@example.com", "wrong-password", auth.ErrInvalidCredentials},
		{"success", "ann@example.com", testPassword, nil},
		{"success with mixed case email", "  Ann@Example.com ", testPassword, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.service.Login(ctx, auth.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			}, "agent", "10.0.0.1")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "AFF0001", resp.AffiliateID)
			assert.Equal(t, "ann@example.com", resp.Email)
			assert.Equal(t, "Bearer", resp.TokenType)

			info, err := f.service.ValidateSession(ctx, resp.Token)
			require.NoError(t, err)
			assert.Equal(t, "AFF0001", info.ID)
		})
	}
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service.Register(ctx, auth.RegisterRequest{
		Name:     "Ann",
		Email:    "Ann@Example.com",
		Password: "long-enough-password",
	})
	require.NoError(t, err)
	assert.Regexp(t, `^AFF\d{4}$`, resp.AffiliateID)
	assert.Equal(t, "pending", resp.Status)

	stored, ok := f.store.Get(resp.AffiliateID)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", stored.Email)
	assert.Equal(t, affiliate.StatusPending, stored.Status)
	assert.NotEqual(t, "long-enough-password", stored.PasswordHash)

	msgs := f.notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, notify.KindAdminRegistration, msgs[0].Kind)
	assert.Equal(t, "admin@example.com", msgs[0].Recipient)
	assert.Contains(t, msgs[0].Body, resp.AffiliateID)

	_, err = f.service.Login(ctx, auth.LoginRequest{
		Email:    "ann@example.com",
		Password: "long-enough-password",
	}, "", "")
	require.ErrorIs(t, err, auth.ErrAccountNotActive)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)

	_, err := f.service.Register(context.Background(), auth.RegisterRequest{
		Name:     "Other Ann",
		Email:    "ann@example.com",
		Password: "long-enough-password",
	})
	require.ErrorIs(t, err, auth.ErrDuplicateEmail)
	assert.Empty(t, f.notifier.messages())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	issued, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(ctx, issued.Token))
	_, err = f.service.ValidateSession(ctx, issued.Token)
	require.ErrorIs(t, err, auth.ErrSessionInvalidOrExpired)

	require.NoError(t, f.service.Logout(ctx, issued.Token))
}

func TestVerifySessionMapsToRejected(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	issued, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)

	principal, err := f.service.VerifySession(ctx, issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "AFF0001", principal.AffiliateID)
	assert.Equal(t, "Starter", principal.Tier)

	_, err = f.service.VerifySession(ctx, "not-a-token")
	require.ErrorIs(t, err, middleware.ErrSessionRejected)
	require.ErrorIs(t, err, auth.ErrSessionInvalidOrExpired)
}

func TestValidateSessionPersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("FindByHash", errors.New("connection reset"))

	_, err := f.service.ValidateSession(context.Background(), "anything")
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.NotErrorIs(t, err, auth.ErrSessionInvalidOrExpired)
}

func TestSweeper(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	_, err := f.sessions.Issue(ctx, "AFF0001", "", "")
	require.NoError(t, err)
	f.clock.Advance(31 * 24 * time.Hour)

	sweeper := auth.NewSweeper(f.sessions, 10*time.Millisecond, quietLogger)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		sweeper.Run(runCtx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return f.store.SessionCount() == 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSweepOnceReportsCount(t *testing.T) {
	f := newFixture(t)
	f.seed("AFF0001", "ann@example.com", affiliate.StatusActive)
	ctx := context.Background()

	for range 3 {
		_, err := f.sessions.Issue(ctx, "AFF0001", "", "")
		require.NoError(t, err)
	}
	f.clock.Advance(auth.DefaultSessionTTL)

	sweeper := auth.NewSweeper(f.sessions, time.Hour, quietLogger)
	assert.Equal(t, int64(3), sweeper.SweepOnce(ctx))
	assert.Equal(t, int64(0), sweeper.SweepOnce(ctx))
}
