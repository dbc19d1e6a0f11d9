package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost is bcrypt's work factor for stored credentials. DefaultCost
// keeps signup and the admin seed fast enough; raise it independently
// of the library default if that changes.
const hashCost = bcrypt.DefaultCost

// HashPassword derives the stored hash for a signup or seeded password.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPasswordHash reports whether password matches the stored hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
