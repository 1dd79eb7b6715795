package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// RoleService administra roles e a associação de roles a usuários
type RoleService struct {
	deps Dependencies
}

// NewRoleService cria um novo RoleService
func NewRoleService(deps Dependencies) *RoleService {
	return &RoleService{deps: deps.withDefaults()}
}

// CreateRoleInput representa os dados para criar um role
type CreateRoleInput struct {
	Name        string
	DisplayName string
	Description *string
}

// UpdateRoleInput contém apenas os campos a alterar; o nome é imutável
type UpdateRoleInput struct {
	DisplayName *string
	Description *string
	IsActive    *bool
}

// ListRoles lista roles; inativos só entram quando includeInactive é true
func (s *RoleService) ListRoles(ctx context.Context, includeInactive bool) ([]*entities.Role, error) {
	return s.deps.Roles.List(ctx, includeInactive)
}

// GetRole busca um role por ID
func (s *RoleService) GetRole(ctx context.Context, id uint) (*entities.Role, error) {
	role, err := s.deps.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domainerrors.ErrRoleNotFound
	}
	return role, nil
}

// CreateRole cria um role customizado; nomes são únicos sem diferenciar maiúsculas
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*entities.Role, error) {
	log := s.deps.Logger.WithContext(ctx)

	name, err := valueobjects.NewRoleName(input.Name)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(input.DisplayName)
	if displayName == "" {
		displayName = name.String()
	}

	role := &entities.Role{
		Name:         name.String(),
		DisplayName:  displayName,
		Description:  input.Description,
		IsSystemRole: false,
		IsActive:     true,
	}

	existing, err := s.deps.Roles.FindByName(ctx, role.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domainerrors.ErrRoleAlreadyExists.WithField("name")
	}

	// O índice único fecha a corrida entre a checagem e o insert
	if err := s.deps.Roles.Create(ctx, role); err != nil {
		return nil, err
	}

	log.Info("role created", "role_id", role.ID, "name", role.Name)
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventRoleCreated,
		RoleID:     role.ID,
		Attributes: map[string]string{"name": role.Name},
	})
	return role, nil
}

// UpdateRole altera um role customizado. Roles de sistema são imutáveis.
func (s *RoleService) UpdateRole(ctx context.Context, id uint, input UpdateRoleInput) (*entities.Role, error) {
	log := s.deps.Logger.WithContext(ctx)

	var role *entities.Role
	err := s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		role, err = s.modifiableRole(txCtx, id)
		if err != nil {
			return err
		}

		if input.DisplayName != nil {
			if dn := strings.TrimSpace(*input.DisplayName); dn != "" {
				role.DisplayName = dn
			}
		}
		if input.Description != nil {
			role.Description = input.Description
		}
		if input.IsActive != nil {
			role.IsActive = *input.IsActive
		}
		return s.deps.Roles.Update(txCtx, role)
	})
	if err != nil {
		return nil, err
	}

	log.Info("role updated", "role_id", role.ID, "is_active", role.IsActive)
	s.deps.publish(ctx, entities.AccountEvent{
		Type:       entities.EventRoleUpdated,
		RoleID:     role.ID,
		Attributes: map[string]string{"name": role.Name, "is_active": strconv.FormatBool(role.IsActive)},
	})
	return role, nil
}

// DeleteRole desativa um role customizado (soft delete)
func (s *RoleService) DeleteRole(ctx context.Context, id uint) error {
	log := s.deps.Logger.WithContext(ctx)

	var (
		role    *entities.Role
		changed bool
	)
	err := s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		role, err = s.modifiableRole(txCtx, id)
		if err != nil {
			return err
		}
		if !role.IsActive {
			return nil
		}

		role.IsActive = false
		changed = true
		return s.deps.Roles.Update(txCtx, role)
	})
	if err != nil {
		return err
	}

	if changed {
		log.Info("role deactivated", "role_id", role.ID, "name", role.Name)
		s.deps.publish(ctx, entities.AccountEvent{
			Type:       entities.EventRoleDeactivated,
			RoleID:     role.ID,
			Attributes: map[string]string{"name": role.Name},
		})
	}
	return nil
}

func (s *RoleService) modifiableRole(ctx context.Context, id uint) (*entities.Role, error) {
	role, err := s.deps.Roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, domainerrors.ErrRoleNotFound
	}
	if !role.CanBeModified() {
		return nil, domainerrors.ErrSystemRoleProtected
	}
	return role, nil
}

// AssignRolesToUser adiciona os roles que o usuário ainda não tem.
// Roles já atribuídos são ignorados; role inativo é inválido.
func (s *RoleService) AssignRolesToUser(ctx context.Context, userID uint, roleNames []string) (*entities.User, error) {
	return s.changeUserRoles(ctx, userID, roleNames, true)
}

// RemoveRolesFromUser remove os roles indicados; remover um role não atribuído não faz nada
func (s *RoleService) RemoveRolesFromUser(ctx context.Context, userID uint, roleNames []string) (*entities.User, error) {
	return s.changeUserRoles(ctx, userID, roleNames, false)
}

// changeUserRoles calcula a diferença entre o conjunto atual e o pedido e aplica só o delta
func (s *RoleService) changeUserRoles(ctx context.Context, userID uint, roleNames []string, assign bool) (*entities.User, error) {
	log := s.deps.Logger.WithContext(ctx)

	var (
		user  *entities.User
		delta []string
	)
	err := s.deps.UnitOfWork.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.deps.Users.FindByIDForUpdate(txCtx, userID)
		if err != nil {
			return err
		}
		if locked == nil {
			return domainerrors.ErrUserNotFound
		}

		roles, err := s.deps.resolveRoles(txCtx, roleNames)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(roles))
		for _, role := range roles {
			if assign {
				if !role.IsActive {
					return domainerrors.ErrRoleInactive.WithField("roles")
				}
				if locked.HoldsRoleID(role.ID) {
					continue
				}
			} else if !locked.HoldsRoleID(role.ID) {
				continue
			}
			ids = append(ids, role.ID)
			delta = append(delta, role.Name)
		}

		if len(ids) > 0 {
			if assign {
				err = s.deps.Users.AddRoles(txCtx, userID, ids)
			} else {
				err = s.deps.Users.RemoveRoles(txCtx, userID, ids)
			}
			if err != nil {
				return err
			}
		}

		user, err = s.deps.Users.FindByID(txCtx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domainerrors.ErrUserNotFound
	}

	if len(delta) > 0 {
		op := "removed"
		if assign {
			op = "assigned"
		}
		log.Info("user roles changed", "user_id", userID, op, delta)
		s.deps.publish(ctx, entities.AccountEvent{
			Type:   entities.EventUserRolesChanged,
			UserID: userID,
			Attributes: map[string]string{
				op:      strings.Join(delta, ","),
				"roles": strings.Join(user.ActiveRoleNames(), ","),
			},
		})
	}
	return user, nil
}
