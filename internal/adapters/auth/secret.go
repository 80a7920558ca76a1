package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"festivalscheduling/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

type bcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a SecretHasher backed by bcrypt. Secrets are
// pre-hashed with SHA256 so inputs longer than bcrypt's 72 byte limit still
// count in full.
func NewBcryptHasher(cost int) domain.SecretHasher {
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(secret))
}

func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return []byte(hex.EncodeToString(sum[:]))
}
