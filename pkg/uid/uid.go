// Package uid generates and validates the request identifiers used
// for log correlation across the API.
package uid

import "github.com/google/uuid"

// New returns a fresh identifier.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether id is a well-formed identifier. The empty
// string is not.
func IsValid(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
