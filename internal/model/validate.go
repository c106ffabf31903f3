package model

import (
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// maxTitleLen bounds record titles.
const maxTitleLen = 500

// ValidateRecord checks a Record for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the record is valid.
func ValidateRecord(r *Record) error {
	var ve ValidationError

	title := strings.TrimSpace(r.Title)
	if title == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "is required"})
	} else if len([]rune(title)) > maxTitleLen {
		ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidateUpdate checks a RecordUpdate. No-op updates are rejected, and any
// supplied title must satisfy the same rules as at creation.
func ValidateUpdate(u RecordUpdate) error {
	var ve ValidationError

	if u.IsEmpty() {
		ve.Errors = append(ve.Errors, FieldError{Field: "update", Message: "no fields to update"})
		return &ve
	}

	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must not be empty"})
		} else if len([]rune(title)) > maxTitleLen {
			ve.Errors = append(ve.Errors, FieldError{Field: "title", Message: "must be 500 characters or fewer"})
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
