package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"sentinel", ErrUserNotFound, KindNotFound},
		{"com campo", ErrPhoneAlreadyExists.WithField("phone_number"), KindConflict},
		{"embrulhado com fmt", fmt.Errorf("register: %w", ErrInvalidCode), KindInvalid},
		{"infraestrutura", Unavailable(errors.New("connection refused")), KindUnavailable},
		{"desconhecido", errors.New("boom"), KindInternal},
		{"nil", nil, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("esperava %s, obteve %s", tt.expected, got)
			}
		})
	}
}

func TestWithField(t *testing.T) {
	err := ErrInvalidCode.WithField("code")

	if !errors.Is(err, ErrInvalidCode) {
		t.Error("errors.Is deveria encontrar o sentinel")
	}
	if FieldOf(err) != "code" {
		t.Errorf("esperava campo 'code', obteve %q", FieldOf(err))
	}
	if MessageOf(err) != "error.invalid_code" {
		t.Errorf("mensagem inesperada: %q", MessageOf(err))
	}
	if err.Error() != "error.invalid_code" {
		t.Errorf("Error() não deveria repetir a mensagem: %q", err.Error())
	}
	if ErrInvalidCode.Field != "" {
		t.Error("WithField não pode alterar o sentinel")
	}
}

func TestUnavailable(t *testing.T) {
	if Unavailable(nil) != nil {
		t.Error("nil deveria continuar nil")
	}

	cause := errors.New("dial tcp: timeout")
	err := Unavailable(cause)
	if !errors.Is(err, cause) {
		t.Error("a causa deveria continuar acessível")
	}
	if MessageOf(err) != ErrStoreUnavailable.Message {
		t.Errorf("mensagem inesperada: %q", MessageOf(err))
	}

	// Erros de domínio passam intactos
	if got := Unavailable(ErrUserNotFound); got != ErrUserNotFound {
		t.Errorf("erro de domínio não deveria ser reembrulhado: %v", got)
	}
}

func TestMessageOf_Unknown(t *testing.T) {
	if MessageOf(errors.New("x")) != "error.internal" {
		t.Error("erros desconhecidos usam error.internal")
	}
}
