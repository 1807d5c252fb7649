// Package uuid provides ID generation and validation for inspection
// records and their media.
package uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// InspectionPrefix marks locally generated inspection IDs. The prefix
// survives sync round-trips, so the remote store sees the same opaque
// identifiers the client generated.
const InspectionPrefix = "insp_"

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// NewInspectionID generates a new prefixed inspection ID.
func NewInspectionID() string {
	return InspectionPrefix + uuid.New().String()
}

// IsInspectionID checks whether s is a well-formed inspection ID.
func IsInspectionID(s string) bool {
	rest, ok := strings.CutPrefix(s, InspectionPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// ValidateInspectionID returns an error if s is not a well-formed
// inspection ID.
func ValidateInspectionID(s string) error {
	if !IsInspectionID(s) {
		return fmt.Errorf("invalid inspection ID: %q", s)
	}
	return nil
}
