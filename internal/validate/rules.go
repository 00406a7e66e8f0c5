package validate

import (
	"strings"

	"github.com/collectorscorner/corner/pkg/domain"
)

// CollectionInput is the create-collection form.
type CollectionInput struct {
	Title       string
	Description string
	Category    string
	IsPublic    bool
	Image       *domain.Upload
}

// Collection validates a new collection.
func Collection(in CollectionInput) ErrorMap {
	errs := check(struct {
		Title       string `json:"title" validate:"required,min=3"`
		Description string `json:"description" validate:"required,min=10"`
		Category    string `json:"category" validate:"required"`
	}{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
	})
	checkImage(errs, FieldImage, in.Image)
	return errs
}

// CardInput is the add-card form.
type CardInput struct {
	Title        string
	Description  string
	Category     string
	Rarity       string
	CollectionID int64
	Image        *domain.Upload
}

// Card validates a new card. An empty rarity is allowed and means
// domain.DefaultRarity.
func Card(in CardInput) ErrorMap {
	errs := check(struct {
		Title       string `json:"title" validate:"required,min=2"`
		Description string `json:"description" validate:"required,min=5"`
		Category    string `json:"category" validate:"required"`
		Rarity      string `json:"rarity" validate:"omitempty,rarity"`
	}{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Rarity:      strings.TrimSpace(in.Rarity),
	})
	checkImage(errs, FieldImage, in.Image)
	return errs
}

// Avatar validates an avatar upload.
func Avatar(img *domain.Upload) ErrorMap {
	errs := ErrorMap{}
	checkImage(errs, FieldImage, img)
	return errs
}

// Login checks that both credentials are present. Password rules are not
// applied so that accounts created under older rules can still sign in.
func Login(username, password string) ErrorMap {
	return check(struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}{strings.TrimSpace(username), password})
}

// Register validates the sign-up form. Passwords are never trimmed.
func Register(username, email, password string) ErrorMap {
	return check(struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,password"`
	}{strings.TrimSpace(username), strings.TrimSpace(email), password})
}

// Reset validates the reset-password form.
func Reset(resetToken, password, confirm string) ErrorMap {
	return check(struct {
		ResetToken      string `json:"resetToken" validate:"required"`
		Password        string `json:"password" validate:"required,password"`
		ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
	}{strings.TrimSpace(resetToken), password, confirm})
}

// Forgot validates the forgot-password form.
func Forgot(email string) ErrorMap {
	return Email(email)
}

// Nickname validates a display-name change.
func Nickname(nickname string) ErrorMap {
	return check(struct {
		Nickname string `json:"nickname" validate:"required,max=32"`
	}{strings.TrimSpace(nickname)})
}

// Email validates an email address field.
func Email(email string) ErrorMap {
	return check(struct {
		Email string `json:"email" validate:"required,email"`
	}{strings.TrimSpace(email)})
}
