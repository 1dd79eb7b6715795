package valueobjects

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
)

// e164Pattern: '+' seguido de 8 a 15 dígitos, sem zero à esquerda no código do país
var e164Pattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// PhoneNumber é um value object que garante um número sempre em formato E.164
type PhoneNumber struct {
	value string
}

// NewPhoneNumber cria um PhoneNumber validado.
// Aceita separadores comuns ("+250 788-000 111") e normaliza para E.164.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "+") {
		return PhoneNumber{}, domainerrors.ErrInvalidPhoneNumber.WithField("phone_number")
	}

	normalized := raw
	if parsed, err := phonenumbers.Parse(raw, ""); err == nil {
		normalized = phonenumbers.Format(parsed, phonenumbers.E164)
	}

	if !e164Pattern.MatchString(normalized) {
		return PhoneNumber{}, domainerrors.ErrInvalidPhoneNumber.WithField("phone_number")
	}

	return PhoneNumber{value: normalized}, nil
}

// MustPhoneNumber é usado em seeds e testes com valores conhecidos
func MustPhoneNumber(raw string) PhoneNumber {
	p, err := NewPhoneNumber(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String retorna o número em E.164
func (p PhoneNumber) String() string {
	return p.value
}

// IsZero indica se o valor não foi inicializado
func (p PhoneNumber) IsZero() bool {
	return p.value == ""
}

// Masked retorna o número com apenas os últimos 4 dígitos visíveis (para logs)
func (p PhoneNumber) Masked() string {
	if len(p.value) <= 4 {
		return p.value
	}
	return strings.Repeat("*", len(p.value)-4) + p.value[len(p.value)-4:]
}
