package domain

import (
	"time"
	"unicode"
)

// UserProfile is the signed-in user's account as returned by the backend.
type UserProfile struct {
	Username    string
	Email       string
	AvatarRef   string
	CreatedAt   time.Time
	Collections []Collection
}

// Initial returns the upper-cased first letter of the username, used as
// an avatar placeholder.
func (p UserProfile) Initial() string {
	for _, r := range p.Username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
