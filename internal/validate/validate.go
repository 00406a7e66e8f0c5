// Package validate holds the client-side rule sets for every form.
//
// Rule sets are pure: they never touch the network and return the same
// ErrorMap for the same input.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/collectorscorner/corner/pkg/domain"
)

// Field keys shared by forms and rule sets.
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldCategory        = "category"
	FieldRarity          = "rarity"
	FieldImage           = "image"
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
	FieldResetToken      = "resetToken"
	FieldNickname        = "nickname"
)

// Messages.
const (
	MsgRequired  = "is required"
	MsgTooLarge  = "exceeds 5MB"
	MsgNotImage  = "must be an image"
	MsgPassword  = "must be 8-16 chars with a letter, a digit and a symbol"
	MsgMismatch  = "passwords do not match"
	MsgEmail     = "must be a valid email"
	MsgRarity    = "must be one of common, uncommon, rare, epic, legendary"
	msgInvalid   = "is invalid"
	passwordMin  = 8
	passwordMax  = 16
	passwordSyms = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`
)

// ErrorMap maps a field key to its message. An empty map means valid.
type ErrorMap map[string]string

// Valid reports whether no field has an error.
func (m ErrorMap) Valid() bool { return len(m) == 0 }

// Clear removes the error for field, if any.
func (m ErrorMap) Clear(field string) { delete(m, field) }

// Fields returns the keys with errors in sorted order.
func (m ErrorMap) Fields() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies every entry of other into m, overwriting existing keys.
func (m ErrorMap) Merge(other map[string]string) {
	for k, v := range other {
		m[k] = v
	}
}

func (m ErrorMap) String() string {
	parts := make([]string, 0, len(m))
	for _, k := range m.Fields() {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so keys match form fields and server field errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return IsValidPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("rarity", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return domain.ValidRarity(fl.Field().String())
	})
	return v
}

// IsValidPassword reports whether p is 8 to 16 characters long and contains
// at least one ASCII letter, one digit and one symbol from the fixed set.
func IsValidPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	if n < passwordMin || n > passwordMax {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSyms, r):
			symbol = true
		}
	}
	return letter && digit && symbol
}

// check runs struct validation and converts failures into an ErrorMap.
func check(s any) ErrorMap {
	errs := ErrorMap{}
	err := validate.Struct(s)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; seen {
			continue
		}
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "min":
		return fmt.Sprintf("must be ≥%s chars", fe.Param())
	case "max":
		return fmt.Sprintf("must be ≤%s chars", fe.Param())
	case "email":
		return MsgEmail
	case "password":
		return MsgPassword
	case "rarity":
		return MsgRarity
	case "eqfield":
		return MsgMismatch
	default:
		return msgInvalid
	}
}

// checkImage applies the image rules to field. A nil upload counts as missing.
func checkImage(errs ErrorMap, field string, img *domain.Upload) {
	switch {
	case img == nil:
		errs[field] = MsgRequired
	case img.Size > domain.MaxImageSize:
		errs[field] = MsgTooLarge
	case !img.IsImage():
		errs[field] = MsgNotImage
	}
}
