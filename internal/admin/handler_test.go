// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/affiliate-backend/internal/middleware"
)

type fakePurger struct {
	n   int64
	err error
}

func (p *fakePurger) Purge(context.Context) (int64, error) {
	return p.n, p.err
}

func newRouter(cfg HandlerConfig) chi.Router {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, middleware.RequireAPIKey("admin-key"))
	return r
}

func do(r http.Handler, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestStatsRequiresAdminKey(t *testing.T) {
	r := newRouter(HandlerConfig{})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/stats", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/admin/stats", "wrong").Code)
}

func TestStats(t *testing.T) {
	r := newRouter(HandlerConfig{
		DBStats:      func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 3} },
		RedisStats:   func() *redis.PoolStats { return &redis.PoolStats{TotalConns: 4} },
		DBPing:       func(context.Context) error { return nil },
		RedisPing:    func(context.Context) error { return errors.New("down") },
		NotifyQueued: func() int { return 7 },
	})

	rec := do(r, http.MethodGet, "/admin/stats", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	assert.Equal(t, 25, body.Data.Database.Stats.MaxOpenConnections)
	assert.False(t, body.Data.Redis.Healthy)
	assert.Equal(t, uint32(4), body.Data.Redis.Stats.TotalConns)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
	require.NotNil(t, body.Data.Notifications)
	assert.Equal(t, 7, body.Data.Notifications.Queued)
}

func TestPurgeSessions(t *testing.T) {
	r := newRouter(HandlerConfig{Sessions: &fakePurger{n: 12}})

	rec := do(r, http.MethodPost, "/admin/sessions/purge", "admin-key")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data PurgeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(12), body.Data.Purged)

	r = newRouter(HandlerConfig{Sessions: &fakePurger{err: errors.New("db gone")}})
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/admin/sessions/purge", "admin-key").Code)

	r = newRouter(HandlerConfig{})
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodPost, "/admin/sessions/purge", "admin-key").Code)
}
