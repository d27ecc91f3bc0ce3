package rental

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Credentials are compared trimmed and case-insensitively, so hashes are
// taken over the folded password.
func foldCredential(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// HashPassword returns the bcrypt hash stored in the Password column.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(foldCredential(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// passwordMatches accepts a bcrypt hash or a plaintext value typed into the
// table by hand.
func passwordMatches(stored, given string) bool {
	stored = strings.TrimSpace(stored)
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(foldCredential(given))) == nil
	}
	return foldCredential(stored) == foldCredential(given)
}

// Authenticate finds the operator whose id, name and password all match,
// ignoring case and surrounding whitespace.
func (u *Users) Authenticate(id, name, password string) (*User, error) {
	all, err := u.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		cand := &all[i]
		if foldCredential(cand.ID) != foldCredential(id) || foldCredential(cand.Name) != foldCredential(name) {
			continue
		}
		if passwordMatches(cand.Password, password) {
			return cand, nil
		}
	}
	return nil, ErrInvalidCredentials
}
