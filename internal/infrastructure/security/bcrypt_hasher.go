package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

// bcrypt ignora bytes além de 72
const maxPasswordBytes = 72

var ErrEmptyPassword = errors.New("password must not be empty")

// BcryptHasher implementa ports.PasswordHasher
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher cria um hasher; custos fora da faixa do bcrypt usam o default
func NewBcryptHasher(cost int) ports.PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > maxPasswordBytes {
		return "", bcrypt.ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
