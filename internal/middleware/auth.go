// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/carterperez-dev/affiliate-backend/internal/core"
)

const (
	AffiliateIDKey   contextKey = "affiliate_id"
	AffiliateTierKey contextKey = "affiliate_tier"
	SessionTokenKey  contextKey = "session_token"
	PrincipalKey     contextKey = "principal"
)

// ErrSessionRejected is returned by verifiers for any token that does not
// resolve to a live session. Callers cannot tell unknown from expired.
var ErrSessionRejected = errors.New("session invalid or expired")

type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*Principal, error)
}

type Principal struct {
	AffiliateID string
	Name        string
	Tier        string
}

func Authenticator(verifier SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)

			if token == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing authorization token"),
				)
				return
			}

			principal, err := verifier.VerifySession(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, AffiliateIDKey, principal.AffiliateID)
			ctx = context.WithValue(ctx, AffiliateTierKey, principal.Tier)
			ctx = context.WithValue(ctx, SessionTokenKey, token)
			ctx = context.WithValue(ctx, PrincipalKey, principal)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAPIKey guards machine-to-machine routes (sale ingestion, admin
// moderation) with a static key in the X-API-Key header. An empty key
// disables the route entirely.
func RequireAPIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				core.JSONError(
					w,
					core.ForbiddenError("endpoint disabled"),
				)
				return
			}

			presented := r.Header.Get("X-API-Key")
			if presented == "" {
				core.JSONError(
					w,
					core.UnauthorizedError("missing api key"),
				)
				return
			}

			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				core.JSONError(
					w,
					core.UnauthorizedError("invalid api key"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	if errors.Is(err, ErrSessionRejected) {
		core.JSONError(w, core.NewAppError(
			err,
			"session invalid or expired",
			http.StatusUnauthorized,
			"SESSION_INVALID",
		))
		return
	}

	core.InternalServerError(w, err)
}

func GetAffiliateID(ctx context.Context) string {
	if id, ok := ctx.Value(AffiliateIDKey).(string); ok {
		return id
	}
	return ""
}

func GetAffiliateTier(ctx context.Context) string {
	if t, ok := ctx.Value(AffiliateTierKey).(string); ok {
		return t
	}
	return ""
}

func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}

func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

func IsAuthenticated(ctx context.Context) bool {
	return GetAffiliateID(ctx) != ""
}
