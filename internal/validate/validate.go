package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storebill/internal/domain"
)

var (
	rePhone    = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report json names so messages match what the client sent
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return rePhone.MatchString(fl.Field().String())
	})
	return val
}

// Struct runs the `validate` tags of s. Failures wrap domain.ErrValidation.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must have at least " + fe.Param() + " entries"
		}
		return field + " must be at least " + fe.Param()
	case "gt", "gte", "lte", "max":
		return field + " must be " + fe.Tag() + " " + fe.Param()
	case "oneof":
		return field + " must be one of " + fe.Param()
	case "uuid":
		return field + " must be a valid id"
	default:
		return field + " is invalid"
	}
}

// maxQ is the longest search query kept, in runes.
const maxQ = 50

// Q validates a search query: trims and truncates to maxQ runes. Any text is a
// valid substring search; only invalid UTF-8 and control characters are refused.
// An empty query is valid and means "no filter".
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if !utf8.ValidString(s) || strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", false
	}
	if r := []rune(s); len(r) > maxQ {
		s = strings.TrimSpace(string(r[:maxQ]))
	}
	return s, true
}

// ID validates an entity id (uuid).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, uuid.Validate(s) == nil
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Password enforces a length window; bcrypt ignores bytes past 72.
func Password(s string) bool {
	l := len(s)
	return l >= 6 && l <= 72
}

// Int parses a positive query integer, falling back to def and clamping at max.
func Int(s string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// Float parses a non-negative form number, 0 when blank or malformed.
func Float(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
