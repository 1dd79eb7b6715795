package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// UserService contém a lógica de negócio para usuários: cadastro, login e administração da conta
type UserService struct {
	deps   Dependencies
	policy Policy

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService cria um novo UserService
func NewUserService(deps Dependencies, policy Policy) *UserService {
	return &UserService{
		deps:   deps.withDefaults(),
		policy: policy,
	}
}

// RegisterInput representa os dados para cadastrar um usuário
type RegisterInput struct {
	FullName    string
	PhoneNumber string
	Gender      string
	BirthDate   *time.Time
	Password    string
	Roles       []string
}

// LoginResult é o bearer token emitido para um usuário autenticado
type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
	User        *entities.User
}

// Register cria um usuário não verificado com seus roles e envia o código de verificação.
// Usuário e roles são gravados na mesma transação; o SMS só sai depois do commit.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*entities.User, error) {
	log := s.deps.Logger.WithContext(ctx)

	phone, err := valueobjects.NewPhoneNumber(input.PhoneNumber)
	if err != nil {
		return nil, err
	}

	roleNames := input.Roles
	if len(roleNames) == 0 {
		roleNames = s.policy.DefaultRoles
	}

	hash, err := s.deps.hashPassword(input.Password, "password")
	if err != nil {
		return nil, err
	}

	code, err := s.deps.Codes.NumericCode(s.policy.CodeLength)
	if err != nil {
		return nil, err
	}

	user := entities.NewUser(input.FullName, phone, input.Gender, input.BirthDate, hash)
	user.IssueVerificationCode(code, s.deps.now().Add(s.policy.VerificationTTL))
	if err := user.Validate(); err != nil {
		return nil, err
	}

	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		existing, err := s.deps.Users.FindByPhone(txCtx, phone.String())
		if err != nil {
			return err
		}
		if existing != nil {
			return domainerrors.ErrPhoneAlreadyExists.WithField("phone_number")
		}

		roles, err := s.deps.resolveRoles(txCtx, roleNames)
		if err != nil {
			return err
		}
		for _, role := range roles {
			// No cadastro um role inativo é tratado como inexistente
			if !role.IsActive {
				return domainerrors.ErrRoleNotFound.WithField("roles")
			}
			user.Roles = append(user.Roles, *role)
		}

		return s.deps.Users.Create(txCtx, user)
	})
	if err != nil {
		log.Warn("registration failed", "phone", phone.Masked(), "error", err)
		return nil, err
	}

	log.Info("user registered", "user_id", user.ID, "phone", phone.Masked(), "roles", user.ActiveRoleNames())
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventUserRegistered,
		UserID:     user.ID,
		Attributes: map[string]string{"roles": strings.Join(user.ActiveRoleNames(), ",")},
	})

	delivered := s.deps.sendCode(ctx, phone, "sms.verification_code", code, s.policy.VerificationTTL)
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventVerificationSent,
		UserID:     user.ID,
		Attributes: map[string]string{"delivered": strconv.FormatBool(delivered)},
	})

	return user, nil
}

// Authenticate retorna o usuário quando telefone e senha conferem, ou (nil, nil) caso contrário.
// Conta inativa é ErrAccountInactive independentemente da senha.
func (s *UserService) Authenticate(ctx context.Context, phoneNumber, password string) (*entities.User, error) {
	phone, err := valueobjects.NewPhoneNumber(phoneNumber)
	if err != nil {
		s.burnHash(password)
		return nil, nil
	}

	user, err := s.deps.Users.FindByPhone(ctx, phone.String())
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.burnHash(password)
		return nil, nil
	}

	if !user.IsActive {
		return nil, domainerrors.ErrAccountInactive
	}

	if !s.deps.Hasher.Verify(password, user.PasswordHash) {
		return nil, nil
	}
	return user, nil
}

// burnHash gasta o mesmo tempo de uma verificação real quando o telefone não existe
func (s *UserService) burnHash(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.deps.Hasher.Hash("carelink-timing-equalizer")
	})
	if s.dummyHash != "" {
		s.deps.Hasher.Verify(password, s.dummyHash)
	}
}

// Login autentica e emite o bearer token
func (s *UserService) Login(ctx context.Context, phoneNumber, password string) (*LoginResult, error) {
	log := s.deps.Logger.WithContext(ctx)

	user, err := s.Authenticate(ctx, phoneNumber, password)
	if err != nil {
		log.Warn("login rejected", "error", err)
		return nil, err
	}
	if user == nil {
		log.Info("login failed: invalid credentials")
		return nil, domainerrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.deps.Tokens.Issue(user.ID, s.policy.AccessTokenTTL)
	if err != nil {
		log.Error("failed to issue access token", "user_id", user.ID, "error", err)
		return nil, err
	}

	log.Info("user logged in", "user_id", user.ID)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   s.policy.AccessTokenTTL,
		User:        user,
	}, nil
}

// GetUser busca um usuário por ID
func (s *UserService) GetUser(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.deps.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domainerrors.ErrUserNotFound
	}
	return user, nil
}

// GetUserForViewer busca um usuário permitindo apenas o próprio usuário ou um admin
func (s *UserService) GetUserForViewer(ctx context.Context, viewer *entities.User, id uint) (*entities.User, error) {
	if viewer.ID != id && !viewer.IsAdmin() {
		return nil, domainerrors.ErrForbidden
	}
	return s.GetUser(ctx, id)
}

// ListUsers lista usuários com filtros e paginação; retorna também o total
func (s *UserService) ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*entities.User, int64, error) {
	filters = filters.Normalize()
	if filters.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*filters.Role))
		filters.Role = &role
	}
	return s.deps.Users.List(ctx, filters)
}

// ChangePassword troca a senha de um usuário autenticado após conferir a senha atual
func (s *UserService) ChangePassword(ctx context.Context, user *entities.User, currentPassword, newPassword string) error {
	log := s.deps.Logger.WithContext(ctx)

	newHash, err := s.deps.hashPassword(newPassword, "new_password")
	if err != nil {
		return err
	}

	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.deps.Users.FindByIDForUpdate(txCtx, user.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domainerrors.ErrUserNotFound
		}

		if !s.deps.Hasher.Verify(currentPassword, locked.PasswordHash) {
			return domainerrors.ErrInvalidPassword.WithField("current_password")
		}

		locked.PasswordHash = newHash
		return s.deps.Users.Update(txCtx, locked)
	})
	if err != nil {
		log.Warn("password change failed", "user_id", user.ID, "error", err)
		return err
	}

	user.PasswordHash = newHash
	log.Info("password changed", "user_id", user.ID)
	s.deps.publish(ctx, entities.AccountEvent{Type: entities.EventPasswordChanged, UserID: user.ID})
	return nil
}

// SetUserActive ativa ou desativa uma conta. Um admin não pode desativar a própria conta.
func (s *UserService) SetUserActive(ctx context.Context, actor *entities.User, id uint, active bool) (*entities.User, error) {
	log := s.deps.Logger.WithContext(ctx)

	if actor.ID == id && !active {
		return nil, domainerrors.ErrCannotDeactivateSelf
	}

	var (
		user    *entities.User
		changed bool
	)
	err := s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.deps.Users.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return domainerrors.ErrUserNotFound
		}
		if user.IsActive == active {
			return nil
		}

		user.IsActive = active
		changed = true
		return s.deps.Users.Update(txCtx, user)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		log.Info("user status changed", "user_id", id, "is_active", active, "actor_id", actor.ID)
		s.deps.publish(ctx, entities.AccountEvent{
			Type:       entities.EventUserStatusChanged,
			UserID:     id,
			Attributes: map[string]string{"is_active": strconv.FormatBool(active)},
		})
	}
	return user, nil
}
