package entities

import (
	"crypto/subtle"
	"strings"
	"time"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// User representa um usuário do sistema
type User struct {
	ID           uint
	FullName     string
	PhoneNumber  valueobjects.PhoneNumber
	Gender       string
	BirthDate    *time.Time
	PasswordHash string
	IsActive     bool
	IsVerified   bool

	// Canal de verificação: código e expiração são definidos e limpos juntos
	VerificationCode        *string
	VerificationCodeExpires *time.Time

	// Canal de redefinição de senha, independente do canal de verificação
	PasswordResetToken   *string
	PasswordResetExpires *time.Time

	Roles     []Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser cria um usuário ativo e não verificado
func NewUser(fullName string, phone valueobjects.PhoneNumber, gender string, birthDate *time.Time, passwordHash string) *User {
	return &User{
		FullName:     strings.TrimSpace(fullName),
		PhoneNumber:  phone,
		Gender:       strings.TrimSpace(gender),
		BirthDate:    birthDate,
		PasswordHash: passwordHash,
		IsActive:     true,
		IsVerified:   false,
	}
}

// IsAdmin verifica se o usuário é admin
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// HasRole verifica se o usuário possui o role (sem diferenciar maiúsculas).
// Roles desativados não contam.
func (u *User) HasRole(name string) bool {
	for i := range u.Roles {
		if u.Roles[i].IsActive && u.Roles[i].Matches(name) {
			return true
		}
	}
	return false
}

// HoldsRoleID indica se existe associação com o role, ativo ou não
func (u *User) HoldsRoleID(id uint) bool {
	for i := range u.Roles {
		if u.Roles[i].ID == id {
			return true
		}
	}
	return false
}

// ActiveRoleNames retorna os nomes dos roles ativos
func (u *User) ActiveRoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if r.IsActive {
			names = append(names, r.Name)
		}
	}
	return names
}

// IssueVerificationCode substitui qualquer código pendente por um novo
func (u *User) IssueVerificationCode(code string, expires time.Time) {
	u.VerificationCode = &code
	u.VerificationCodeExpires = &expires
}

// ConfirmVerification valida o código e, em caso de sucesso, marca o usuário como verificado
// e limpa o canal de verificação. O código só é válido enquanto now < expiração.
func (u *User) ConfirmVerification(code string, now time.Time) error {
	if u.IsVerified {
		return domainerrors.ErrAlreadyVerified
	}
	if err := checkOneTimeCode(u.VerificationCode, u.VerificationCodeExpires, code, now); err != nil {
		return err
	}
	u.IsVerified = true
	u.clearVerification()
	return nil
}

// IssuePasswordReset substitui qualquer token de redefinição pendente
func (u *User) IssuePasswordReset(token string, expires time.Time) {
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expires
}

// ConsumePasswordReset valida o token, troca o hash da senha e limpa o canal de redefinição
func (u *User) ConsumePasswordReset(token string, now time.Time, newPasswordHash string) error {
	if err := checkOneTimeCode(u.PasswordResetToken, u.PasswordResetExpires, token, now); err != nil {
		return err
	}
	u.PasswordHash = newPasswordHash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	return nil
}

// HasPendingVerification indica se há código de verificação emitido
func (u *User) HasPendingVerification() bool {
	return u.VerificationCode != nil && u.VerificationCodeExpires != nil
}

// HasPendingPasswordReset indica se há token de redefinição emitido
func (u *User) HasPendingPasswordReset() bool {
	return u.PasswordResetToken != nil && u.PasswordResetExpires != nil
}

func (u *User) clearVerification() {
	u.VerificationCode = nil
	u.VerificationCodeExpires = nil
}

// Validate valida regras de negócio da entidade User
func (u *User) Validate() error {
	if u.PhoneNumber.IsZero() {
		return domainerrors.ErrInvalidPhoneNumber.WithField("phone_number")
	}

	if len(u.FullName) < 2 || len(u.FullName) > 100 {
		return domainerrors.ErrInvalidUserData.WithField("full_name")
	}

	if u.Gender == "" || len(u.Gender) > 10 {
		return domainerrors.ErrInvalidUserData.WithField("gender")
	}

	if u.PasswordHash == "" {
		return domainerrors.ErrInvalidUserData.WithField("password")
	}

	// Código e expiração andam em par
	if (u.VerificationCode == nil) != (u.VerificationCodeExpires == nil) {
		return domainerrors.ErrInvalidUserData.WithField("verification_code")
	}
	if (u.PasswordResetToken == nil) != (u.PasswordResetExpires == nil) {
		return domainerrors.ErrInvalidUserData.WithField("password_reset_token")
	}
	if u.IsVerified && u.VerificationCode != nil {
		return domainerrors.ErrInvalidUserData.WithField("verification_code")
	}

	return nil
}

func checkOneTimeCode(stored *string, expires *time.Time, submitted string, now time.Time) error {
	if stored == nil || expires == nil {
		return domainerrors.ErrNoPendingCode.WithField("code")
	}
	if subtle.ConstantTimeCompare([]byte(*stored), []byte(submitted)) != 1 {
		return domainerrors.ErrInvalidCode.WithField("code")
	}
	if !now.Before(*expires) {
		return domainerrors.ErrCodeExpired.WithField("code")
	}
	return nil
}
