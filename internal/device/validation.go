package device

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxNameLength bounds device names so status lines stay printable.
const maxNameLength = 100

// ValidateName checks that a device name is non-blank and not too long.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateKind checks that k is one of the known kinds.
func ValidateKind(k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
	return nil
}

// GenerateID returns a new unique device identifier.
func GenerateID() string {
	return uuid.New().String()
}
