package auth

import "time"

// Token is the bearer credential issued by the backend's login endpoint.
type Token struct {
	AccessToken string    `json:"access_token"`
	Email       string    `json:"email,omitempty"`
	IssuedAt    time.Time `json:"issued_at"`
	// ExpiresAt is zero when the backend does not say.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// IsExpired returns true if the token has expired or will expire within a minute.
func (t *Token) IsExpired() bool {
	if t == nil || t.AccessToken == "" {
		return true
	}
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(60 * time.Second).After(t.ExpiresAt)
}
