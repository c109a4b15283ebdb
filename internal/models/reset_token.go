package models

import "time"

// ResetToken is a single-use password reset credential. At most one live
// token exists per user; issuing a new one replaces the previous token.
type ResetToken struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Token     string    `json:"-"` // Never serialize the token value
	Expiry    time.Time `json:"expiry"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given time.
func (t *ResetToken) Expired(now time.Time) bool {
	return now.After(t.Expiry)
}
