// Package session persists the signed-in user's tokens between runs.
//
// A Store is passed explicitly to every component that needs
// authentication; nothing in the client reads tokens from a global.
package session

import (
	"context"

	"github.com/collectorscorner/corner/pkg/domain"
)

// Fixed keys under which the four session values are stored.
const (
	KeyAccessToken         = "accessToken"
	KeyAccessTokenExpires  = "accessTokenExpires"
	KeyRefreshToken        = "refreshToken"
	KeyRefreshTokenExpires = "refreshTokenExpires"
)

// Keys lists every session key in storage order.
var Keys = []string{
	KeyAccessToken,
	KeyAccessTokenExpires,
	KeyRefreshToken,
	KeyRefreshTokenExpires,
}

// Store holds at most one session.
type Store interface {
	// Save persists all four session fields, replacing any existing session.
	Save(ctx context.Context, s domain.Session) error
	// Current returns the stored session; ok is false when none is stored.
	Current(ctx context.Context) (s domain.Session, ok bool, err error)
	// Clear removes every session field.
	Clear(ctx context.Context) error
}
