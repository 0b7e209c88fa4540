package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Hasher defines the credential hashing contract. The mutation gate and the
// login path only ever see this interface, never a concrete scheme.
type Hasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a bcrypt-backed hasher.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash converts a plain secret into its hash.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", errors.New("password: empty secret")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare checks if the provided secret matches the stored hash.
func (h *BcryptHasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
}
