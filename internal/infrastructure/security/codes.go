package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

const resetTokenBytes = 32

// RandomCodeGenerator implementa ports.CodeGenerator sobre crypto/rand
type RandomCodeGenerator struct{}

// NewRandomCodeGenerator cria o gerador
func NewRandomCodeGenerator() ports.CodeGenerator {
	return RandomCodeGenerator{}
}

// NumericCode gera length dígitos uniformes (zeros à esquerda permitidos)
func (RandomCodeGenerator) NumericCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}
	ten := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// URLSafeToken gera 32 bytes aleatórios codificados em base64 URL-safe sem padding
func (RandomCodeGenerator) URLSafeToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
