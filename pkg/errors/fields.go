package errors

import (
	"fmt"
	"sort"
	"strings"
)

// FieldErrors collects per-field validation messages
type FieldErrors struct {
	fields map[string][]string
}

// NewFieldErrors creates an empty collection
func NewFieldErrors() *FieldErrors {
	return &FieldErrors{fields: make(map[string][]string)}
}

// Add records a message for a field
func (f *FieldErrors) Add(field, message string) {
	f.fields[field] = append(f.fields[field], message)
}

// Addf records a formatted message for a field
func (f *FieldErrors) Addf(field, format string, args ...interface{}) {
	f.Add(field, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any field failed
func (f *FieldErrors) HasErrors() bool {
	return len(f.fields) > 0
}

// Error joins all messages in field order
func (f *FieldErrors) Error() string {
	keys := make([]string, 0, len(f.fields))
	for k := range f.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.Join(f.fields[k], "; "))
	}
	return strings.Join(parts, "; ")
}

// AsAppError converts the collection into a validation error, or nil when empty
func (f *FieldErrors) AsAppError() *AppError {
	if !f.HasErrors() {
		return nil
	}
	details := make(map[string]interface{}, len(f.fields))
	for k, v := range f.fields {
		details[k] = v
	}
	return NewValidationError(f.Error()).WithDetails(details)
}
