package auth

import (
	"errors"
	"strings"
)

// MinSecretLength is the shortest accepted HS256 secret (256 bits).
const MinSecretLength = 32

var weakSecrets = []string{"secret", "password", "test", "admin", "default", "changeme"}

// ValidateSecret rejects short or well-known JWT secrets.
func ValidateSecret(secret string) error {
	if len(secret) < MinSecretLength {
		return errors.New("JWT_SECRET must be at least 32 characters")
	}
	lower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if strings.Trim(lower, "0123456789") == weak || strings.Repeat(weak, len(lower)/len(weak)) == lower {
			return errors.New("JWT_SECRET must not be a common weak value")
		}
	}
	return nil
}
