// Package intake validates and normalizes one user-entered expense before it is
// admitted to the store.
package intake

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// Form field names, shared with the HTTP and CLI presentations.
const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldDescription = "description"
)

// Form holds raw, unvalidated user input.
type Form struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// ValidationError lists every offending field of a rejected form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid expense: " + strings.Join(parts, "; ")
}

// Defaults returns the form shown before any input and after a successful submission.
func Defaults(now time.Time) Form {
	return Form{
		Amount:      "0",
		Category:    "",
		Date:        core.Today(now).String(),
		Description: "",
	}
}

// Validate checks every field and reports all failures at once.
func (f Form) Validate() error {
	_, err := f.Normalize()
	return err
}

// Normalize validates the form and converts it into a draft: amount coerced to cents,
// date coerced to the canonical ISO form, text fields trimmed and stripped of control
// characters.
func (f Form) Normalize() (core.Draft, error) {
	fields := make(map[string]string)

	cents, err := core.ParseDecimalToCents(f.Amount)
	if err != nil {
		fields[FieldAmount] = "must be a non-negative number no larger than 1,000,000,000,000"
	}

	category := sanitize(f.Category)
	if category == "" {
		fields[FieldCategory] = "is required"
	}

	date, err := core.ParseDate(f.Date)
	if err != nil {
		fields[FieldDate] = "must be a valid date (YYYY-MM-DD)"
	}

	description := sanitize(f.Description)
	if description == "" {
		fields[FieldDescription] = "is required"
	}

	if len(fields) > 0 {
		return core.Draft{}, &ValidationError{Fields: fields}
	}

	d := core.Draft{
		Amount:      core.Money{Cents: cents},
		Category:    category,
		Date:        date,
		Description: description,
	}
	if err := d.Validate(); err != nil {
		return core.Draft{}, fmt.Errorf("normalize form: %w", err)
	}
	return d, nil
}

// FieldErrors extracts the per-field messages of a validation failure.
func FieldErrors(err error) (map[string]string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields, true
	}
	return nil, false
}

// sanitize removes control characters except tab, newline, carriage return and trims whitespace.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		if r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
