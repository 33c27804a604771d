// Package validation holds the request-shape rules shared by the HTTP endpoints and the
// seed command: email shape, password strength, secret phrase length, profile slug format.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MaxSecretBytes is the longest secret bcrypt accepts; longer input is rejected, not truncated.
const MaxSecretBytes = 72

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9-]{4,16}$`)
	hasLetter   = regexp.MustCompile(`[A-Za-z]`)
	hasDigit    = regexp.MustCompile(`[0-9]`)

	once     sync.Once
	instance *validator.Validate
)

// Validator returns the process-wide validator with the custom rules registered.
// validator.Validate caches struct metadata and is safe for concurrent use.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		// Report JSON field names instead of Go field names.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "password", func(fl validator.FieldLevel) bool {
			return ValidPassword(fl.Field().String())
		})
		mustRegister(v, "secret", func(fl validator.FieldLevel) bool {
			return len(fl.Field().String()) <= MaxSecretBytes
		})
		mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// ValidPassword reports whether p has at least 5 characters including a letter and a digit,
// and fits in MaxSecretBytes.
func ValidPassword(p string) bool {
	return utf8.RuneCountInString(p) >= 5 && len(p) <= MaxSecretBytes &&
		hasLetter.MatchString(p) && hasDigit.MatchString(p)
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	return Validator().Struct(s)
}

// Fields lists the JSON names of the fields that failed validation, for server-side logs.
func Fields(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Field())
	}
	return out
}
