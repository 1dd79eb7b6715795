package services

import (
	"context"
	"strconv"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// PasswordResetService implementa o fluxo de esqueci-minha-senha por código via SMS
type PasswordResetService struct {
	deps   Dependencies
	policy Policy
}

// NewPasswordResetService cria um novo PasswordResetService
func NewPasswordResetService(deps Dependencies, policy Policy) *PasswordResetService {
	return &PasswordResetService{
		deps:   deps.withDefaults(),
		policy: policy,
	}
}

func (s *PasswordResetService) newCode() (string, error) {
	if s.policy.ResetCodeStyle == ResetCodeToken {
		return s.deps.Codes.URLSafeToken()
	}
	return s.deps.Codes.NumericCode(s.policy.CodeLength)
}

// RequestPasswordReset emite um código de redefinição se a conta existir e estiver ativa.
// O resultado visível é o mesmo em todos os casos; só falhas do banco retornam erro.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, phoneNumber string) error {
	log := s.deps.Logger.WithContext(ctx)

	// O código é gerado sempre, exista a conta ou não
	code, err := s.newCode()
	if err != nil {
		return err
	}

	phone, err := valueobjects.NewPhoneNumber(phoneNumber)
	if err != nil {
		log.Debug("password reset requested for malformed phone")
		return nil
	}

	var (
		userID uint
		issued bool
	)
	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.deps.Users.FindByPhoneForUpdate(txCtx, phone.String())
		if err != nil {
			return err
		}
		if user == nil {
			return nil
		}
		if !user.IsActive {
			log.Warn("password reset requested for inactive account", "user_id", user.ID)
			return nil
		}

		user.IssuePasswordReset(code, s.deps.now().Add(s.policy.PasswordResetTTL))
		userID = user.ID
		issued = true
		return s.deps.Users.Update(txCtx, user)
	})
	if err != nil {
		log.Error("password reset request failed", "phone", phone.Masked(), "error", err)
		return err
	}
	if !issued {
		return nil
	}

	log.Info("password reset code issued", "user_id", userID, "phone", phone.Masked())
	delivered := s.deps.sendCode(ctx, phone, "sms.password_reset_code", code, s.policy.PasswordResetTTL)
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventPasswordResetRequested,
		UserID:     userID,
		Attributes: map[string]string{"delivered": strconv.FormatBool(delivered)},
	})
	return nil
}

// ResetPassword troca a senha usando o código de redefinição e limpa o canal de redefinição
func (s *PasswordResetService) ResetPassword(ctx context.Context, phoneNumber, code, newPassword string) error {
	log := s.deps.Logger.WithContext(ctx)

	phone, err := valueobjects.NewPhoneNumber(phoneNumber)
	if err != nil {
		return err
	}

	newHash, err := s.deps.hashPassword(newPassword, "new_password")
	if err != nil {
		return err
	}

	var userID uint
	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		user, err := s.deps.Users.FindByPhoneForUpdate(txCtx, phone.String())
		if err != nil {
			return err
		}
		if user == nil {
			return domainerrors.ErrUserNotFound.WithField("phone_number")
		}

		if err := user.ConsumePasswordReset(code, s.deps.now(), newHash); err != nil {
			return err
		}
		userID = user.ID
		return s.deps.Users.Update(txCtx, user)
	})
	if err != nil {
		log.Info("password reset rejected", "phone", phone.Masked(), "error", err)
		return err
	}

	log.Info("password reset", "user_id", userID)
	s.deps.publish(ctx, entities.AccountEvent{Type: entities.EventPasswordReset, UserID: userID})
	return nil
}
