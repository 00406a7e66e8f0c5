package domain

import (
	"fmt"
	"strings"
	"time"
)

// Session represents the authenticated state of the current user.
type Session struct {
	AccessToken         string    `json:"accessToken"`
	AccessTokenExpires  time.Time `json:"accessTokenExpires"`
	RefreshToken        string    `json:"refreshToken"`
	RefreshTokenExpires time.Time `json:"refreshTokenExpires"`
}

// Valid reports whether the session can authenticate a request at now.
// A zero access expiry means the server did not say, so only the token is checked.
func (s Session) Valid(now time.Time) bool {
	if s.AccessToken == "" {
		return false
	}
	if s.AccessTokenExpires.IsZero() {
		return true
	}
	return now.Before(s.AccessTokenExpires)
}

// expiryLayouts are tried in order by ParseExpiry.
var expiryLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseExpiry parses an expiry timestamp as sent by the backend.
// An empty string yields the zero time.
func ParseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("domain.ParseExpiry: unrecognized timestamp %q", raw)
}
