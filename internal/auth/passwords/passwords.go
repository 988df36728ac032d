// Package passwords wraps the adaptive one-way hash used for credentials.
package passwords

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	dErrors "studentdesk/pkg/domain-errors"
)

// Hash creates a bcrypt digest of the provided password at the given cost.
// Pass 0 to use bcrypt.DefaultCost.
func Hash(password string, cost int) (string, error) {
	if password == "" {
		return "", dErrors.New(dErrors.CodeValidation, "password cannot be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("could not hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the digest. A malformed digest
// counts as a mismatch rather than a distinct error; callers only ever need
// the boolean.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
