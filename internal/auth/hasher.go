package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the cost factor used for all password hashes.
const BcryptCost = 10

// Hasher wraps bcrypt hashing and verification. Hashes are salted, so two
// hashes of the same plaintext differ; equality checks must go through
// Verify, never through string comparison of hashes.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher with the default cost.
func NewHasher() *Hasher {
	return &Hasher{cost: BcryptCost}
}

// Hash returns the bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
