package services

import (
	"context"
	"errors"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// BootstrapAdmin descreve o admin inicial; Phone vazio desativa a criação
type BootstrapAdmin struct {
	Phone    string
	Password string
	FullName string
}

// Seeder garante os dados mínimos na inicialização sem sobrescrever nada existente
type Seeder struct {
	deps Dependencies
}

// NewSeeder cria um novo Seeder
func NewSeeder(deps Dependencies) *Seeder {
	return &Seeder{deps: deps.withDefaults()}
}

// SeedSystemRoles cria os roles de sistema ausentes
func (s *Seeder) SeedSystemRoles(ctx context.Context) error {
	for _, def := range entities.SystemRoles {
		existing, err := s.deps.Roles.FindByName(ctx, def.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		role := entities.NewSystemRole(def)
		if err := s.deps.Roles.Create(ctx, role); err != nil {
			// Outra instância pode ter semeado primeiro
			if errors.Is(err, domainerrors.ErrRoleAlreadyExists) {
				continue
			}
			return err
		}
		s.deps.Logger.Info("system role seeded", "name", role.Name, "role_id", role.ID)
	}
	return nil
}

// EnsureBootstrapAdmin cria um admin verificado se o telefone ainda não existir
func (s *Seeder) EnsureBootstrapAdmin(ctx context.Context, admin BootstrapAdmin) error {
	if admin.Phone == "" {
		return nil
	}

	phone, err := valueobjects.NewPhoneNumber(admin.Phone)
	if err != nil {
		return err
	}

	existing, err := s.deps.Users.FindByPhone(ctx, phone.String())
	if err != nil {
		return err
	}
	if existing != nil {
		s.deps.Logger.Info("bootstrap admin already present", "user_id", existing.ID)
		return nil
	}

	hash, err := s.deps.hashPassword(admin.Password, "password")
	if err != nil {
		return err
	}

	name := admin.FullName
	if name == "" {
		name = "System Administrator"
	}
	user := entities.NewUser(name, phone, "other", nil, hash)
	user.IsVerified = true

	err = s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		role, err := s.deps.Roles.FindByName(txCtx, entities.RoleAdmin)
		if err != nil {
			return err
		}
		if role == nil {
			return domainerrors.ErrRoleNotFound
		}
		user.Roles = []entities.Role{*role}
		return s.deps.Users.Create(txCtx, user)
	})
	if errors.Is(err, domainerrors.ErrPhoneAlreadyExists) {
		return nil
	}
	if err != nil {
		return err
	}

	s.deps.Logger.Info("bootstrap admin created", "user_id", user.ID, "phone", phone.Masked())
	return nil
}
