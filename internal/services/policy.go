package services

import (
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

// ResetCodeStyle define o formato do código de redefinição de senha
type ResetCodeStyle string

const (
	ResetCodeNumeric ResetCodeStyle = "numeric"
	ResetCodeToken   ResetCodeStyle = "token"
)

// Policy é o snapshot das regras configuráveis, fixado na inicialização
type Policy struct {
	AccessTokenTTL   time.Duration
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
	CodeLength       int
	ResetCodeStyle   ResetCodeStyle
	DefaultRoles     []string
}

// DefaultPolicy retorna os valores padrão de produção
func DefaultPolicy() Policy {
	return Policy{
		AccessTokenTTL:   30 * time.Minute,
		VerificationTTL:  10 * time.Minute,
		PasswordResetTTL: 15 * time.Minute,
		CodeLength:       6,
		ResetCodeStyle:   ResetCodeNumeric,
		DefaultRoles:     entities.DefaultRegistrationRoles,
	}
}

// Clock fornece o instante atual; testes injetam um relógio fixo
type Clock func() time.Time
