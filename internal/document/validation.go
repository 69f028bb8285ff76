package document

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxIDLen is the maximum length of an input or channel identifier.
const MaxIDLen = 256

// ValidateID checks that an input or channel identifier can be stored in a
// document and referenced as a source: non-empty, bounded length, no
// whitespace or control characters, no quotes.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if len(id) > MaxIDLen {
		return fmt.Errorf("%w: length %d > max %d", ErrInvalidID, len(id), MaxIDLen)
	}
	if strings.ContainsAny(id, "\"'`") {
		return fmt.Errorf("%w: %q contains a quote", ErrInvalidID, id)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidID, id)
		}
	}
	return nil
}
