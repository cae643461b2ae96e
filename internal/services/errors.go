package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/bakery-pos/validation"
	"gorm.io/gorm"
)

// Sentinel errors returned by the services. Callers test them with errors.Is;
// the messages double as i18n keys.
var (
	ErrNotFound           = errors.New("not_found")
	ErrAlreadyExists      = errors.New("already_exists")
	ErrValidation         = errors.New("validation_failed")
	ErrEmptyCart          = errors.New("empty_cart")
	ErrInvalidProduct     = errors.New("invalid_product")
	ErrInvalidCredentials = errors.New("invalid_credentials")
)

// ValidationError carries the per-field violations of a rejected input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		parts = append(parts, f+"="+code)
	}
	return "validation_failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Violations extracts field violations from err, if any.
func Violations(err error) validation.Violations {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// isDuplicate matches translated gorm errors as well as raw driver messages.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

// persistErr maps a write error, reporting duplicates of what as ErrAlreadyExists.
func persistErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if isDuplicate(err) {
		return fmt.Errorf("%s: %w", what, ErrAlreadyExists)
	}
	return err
}

// findByID loads a row by primary key, mapping a missing row to ErrNotFound.
func findByID[T any](db *gorm.DB, id uint, what string) (*T, error) {
	var out T
	if err := db.First(&out, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
		}
		return nil, err
	}
	return &out, nil
}

// likeEscaper escapes LIKE wildcards; queries pair it with ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func likePattern(q string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(q))) + "%"
}
