// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/affiliate-backend/internal/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

type stubVerifier struct {
	principal *Principal
	err       error
}

func (v stubVerifier) VerifySession(context.Context, string) (*Principal, error) {
	return v.principal, v.err
}

func TestAuthenticator(t *testing.T) {
	var seen *Principal
	var seenToken, seenTier string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPrincipal(r.Context())
		seenToken = GetSessionToken(r.Context())
		seenTier = GetAffiliateTier(r.Context())
		assert.True(t, IsAuthenticated(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("missing token", func(t *testing.T) {
		h := Authenticator(stubVerifier{})(next)
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		h := Authenticator(stubVerifier{})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		assert.Equal(t, http.StatusUnauthorized, serve(h, req).Code)
	})

	t.Run("rejected session", func(t *testing.T) {
		h := Authenticator(stubVerifier{err: ErrSessionRejected})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := serve(h, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "SESSION_INVALID", errorCode(t, rec))
	})

	t.Run("verifier failure", func(t *testing.T) {
		h := Authenticator(stubVerifier{err: errors.New("db down")})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer tok")
		assert.Equal(t, http.StatusInternalServerError, serve(h, req).Code)
	})

	t.Run("valid session", func(t *testing.T) {
		p := &Principal{AffiliateID: "AFF0001", Name: "Ann", Tier: "Pro"}
		h := Authenticator(stubVerifier{principal: p})(next)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer  tok-123 ")
		require.Equal(t, http.StatusOK, serve(h, req).Code)
		assert.Equal(t, p, seen)
		assert.Equal(t, "tok-123", seenToken)
		assert.Equal(t, "Pro", seenTier)
	})
}

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		presented string
		want      int
	}{
		{"disabled", "", "anything", http.StatusForbidden},
		{"missing", "k-1", "", http.StatusUnauthorized},
		{"wrong", "k-1", "k-2", http.StatusUnauthorized},
		{"prefix only", "k-1", "k-", http.StatusUnauthorized},
		{"match", "k-1", "k-1", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.presented != "" {
				req.Header.Set("X-API-Key", tt.presented)
			}
			assert.Equal(t, tt.want, serve(RequireAPIKey(tt.key)(okHandler), req).Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	var got string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := serve(h, req)
	assert.Equal(t, "req-42", got)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	rec = serve(h, req)
	assert.Len(t, got, 36)
	assert.Equal(t, got, rec.Header().Get(RequestIDHeader))
}

func TestLoggerAndRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	h := RequestID(Logger(logger)(Recoverer(logger)(panicky)))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))

	out := buf.String()
	assert.Contains(t, out, `"msg":"panic recovered"`)
	assert.Contains(t, out, `"msg":"http request"`)
	assert.Contains(t, out, `"status":500`)
	assert.Contains(t, out, `"path":"/v1/dashboard"`)
}

func TestRecovererRethrowsAbort(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://partners.example.com"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})(okHandler)

	t.Run("preflight allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/dashboard", nil)
		req.Header.Set("Origin", "https://partners.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := serve(h, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://partners.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "300", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/dashboard", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := serve(h, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
		req.Header.Set("Origin", "https://partners.example.com")
		rec := serve(h, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, RequestIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(false)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(SecurityHeaders(true)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	assert.Equal(t, "10.0.0.9", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.0.2.44")
	assert.Equal(t, "192.0.2.44", ClientIP(req))
	assert.Equal(t, "ratelimit:ip:192.0.2.44:endpoint:/", KeyByIPAndEndpoint(req))
}

func TestLimitFromConfig(t *testing.T) {
	l := LimitFromConfig(config.RateLimitConfig{Requests: 30})
	assert.Equal(t, redis_rate.Limit{Rate: 30, Burst: 30, Period: time.Minute}, l)

	l = LimitFromConfig(config.RateLimitConfig{Requests: 5, Window: time.Second, Burst: 2})
	assert.Equal(t, redis_rate.Limit{Rate: 5, Burst: 2, Period: time.Second}, l)
}

func TestTierLimits(t *testing.T) {
	limits := TierLimitsFromConfig(map[string]config.RateLimitConfig{
		"starter": {Requests: 60, Burst: 10},
		"ELITE":   {Requests: 1200, Burst: 200},
	})

	name, l := limits.forTier("Elite")
	assert.Equal(t, "Elite", name)
	assert.Equal(t, 1200, l.Rate)

	name, l = limits.forTier("Pro")
	assert.Equal(t, "Starter", name)
	assert.Equal(t, 60, l.Rate)

	name, l = TierLimits{}.forTier("")
	assert.Equal(t, "Starter", name)
	assert.Equal(t, PerMinute(60, 10), l)
}

func TestLocalLimiter(t *testing.T) {
	l := &localLimiter{}
	limit := PerMinute(60, 2)

	for range 2 {
		res, err := l.allow("k", limit)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Allowed)
	}

	res, err := l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	res, err = l.allow("other", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
}

// unreachableRedis forces the limiters onto their in-process fallback.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRateLimiterFallsBackLocally(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), RateLimitConfig{
		Limit: PerMinute(1, 1),
		BypassFunc: func(r *http.Request) bool {
			return r.URL.Path == "/healthz"
		},
	})
	h := rl.Handler(okHandler)

	req := func(path string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = "192.0.2.10:1000"
		return r
	}

	assert.Equal(t, http.StatusOK, serve(h, req("/v1/track/click")).Code)

	rec := serve(h, req("/v1/track/click"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, serve(h, req("/healthz")).Code)
}

func TestTieredRateLimiter(t *testing.T) {
	limits := TierLimits{
		"Starter": PerMinute(60, 1),
		"Elite":   PerMinute(6, 3),
	}
	h := Authenticator(stubVerifier{principal: &Principal{AffiliateID: "AFF0003", Tier: "Elite"}})(
		TieredRateLimiter(unreachableRedis(t), limits)(okHandler),
	)

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := serve(h, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Elite", rec.Header().Get("X-RateLimit-Tier"))
		assert.Equal(t, "6", rec.Header().Get("X-RateLimit-Limit"))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil)
	req.Header.Set("Authorization", "Bearer tok")
	assert.Equal(t, http.StatusTooManyRequests, serve(h, req).Code)
}
