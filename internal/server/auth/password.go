package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost 10 keeps a single verification at roughly 100ms on current
// server hardware.
const bcryptCost = 10

// HashPassword returns a salted one-way hash of the plaintext password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches the stored hash.
// Comparison is constant-time inside bcrypt.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
