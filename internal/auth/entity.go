// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// Session binds an opaque bearer token to an affiliate. Only the SHA-256 of
// the token is stored.
type Session struct {
	ID          string    `db:"id"`
	AffiliateID string    `db:"affiliate_id"`
	TokenHash   string    `db:"token_hash"`
	UserAgent   string    `db:"user_agent"`
	IPAddress   string    `db:"ip_address"`
	ExpiresAt   time.Time `db:"expires_at"`
	CreatedAt   time.Time `db:"created_at"`
}

// IsExpired reports whether the session is past its absolute expiry at now.
// A session is live only while now is strictly before ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
