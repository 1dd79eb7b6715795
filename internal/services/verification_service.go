package services

import (
	"context"
	"strconv"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// VerificationService confirma a posse do telefone por código de uso único
type VerificationService struct {
	deps   Dependencies
	policy Policy
}

// NewVerificationService cria um novo VerificationService
func NewVerificationService(deps Dependencies, policy Policy) *VerificationService {
	return &VerificationService{
		deps:   deps.withDefaults(),
		policy: policy,
	}
}

// SendVerificationCode emite um novo código, substituindo qualquer código pendente
func (s *VerificationService) SendVerificationCode(ctx context.Context, phoneNumber string) error {
	log := s.deps.Logger.WithContext(ctx)

	phone, err := valueobjects.NewPhoneNumber(phoneNumber)
	if err != nil {
		return err
	}

	code, err := s.deps.Codes.NumericCode(s.policy.CodeLength)
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
		if user.IsVerified {
			return domainerrors.ErrAlreadyVerified
		}

		user.IssueVerificationCode(code, s.deps.now().Add(s.policy.VerificationTTL))
		userID = user.ID
		return s.deps.Users.Update(txCtx, user)
	})
	if err != nil {
		return err
	}

	log.Info("verification code issued", "user_id", userID, "phone", phone.Masked())
	delivered := s.deps.sendCode(ctx, phone, "sms.verification_code", code, s.policy.VerificationTTL)
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventVerificationSent,
		UserID:     userID,
		Attributes: map[string]string{"delivered": strconv.FormatBool(delivered)},
	})
	return nil
}

// VerifyAccount confere o código e marca a conta como verificada.
// Código e expiração são limpos na mesma transação que liga is_verified.
func (s *VerificationService) VerifyAccount(ctx context.Context, phoneNumber, code string) (*entities.User, error) {
	log := s.deps.Logger.WithContext(ctx)

	phone, err := valueobjects.NewPhoneNumber(phoneNumber)
	if err != nil {
		return nil, err
	}

	var user *entities.User
	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.deps.Users.FindByPhoneForUpdate(txCtx, phone.String())
		if err != nil {
			return err
		}
		if user == nil {
			return domainerrors.ErrUserNotFound.WithField("phone_number")
		}

		if err := user.ConfirmVerification(code, s.deps.now()); err != nil {
			return err
		}
		return s.deps.Users.Update(txCtx, user)
	})
	if err != nil {
		log.Info("verification rejected", "phone", phone.Masked(), "error", err)
		return nil, err
	}

	log.Info("user verified", "user_id", user.ID)
	s.deps.publish(ctx, entities.AccountEvent{Type: entities.EventUserVerified, UserID: user.ID})
	return user, nil
}
