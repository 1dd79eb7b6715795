package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
)

var roleMutableColumns = []string{"display_name", "description", "is_active", "updated_at"}

// RoleRepository implementa repositories.RoleRepository
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository cria um novo RoleRepository
func NewRoleRepository(db *gorm.DB) repositories.RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(ctx context.Context, role *entities.Role) error {
	model := roleToModel(role)

	db := dbFromContext(ctx, r.db)
	if err := db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrRoleAlreadyExists.WithField("name")
		}
		return translateError(err)
	}

	role.ID = model.ID
	role.CreatedAt = time.Unix(model.CreatedAt, 0).UTC()
	role.UpdatedAt = time.Unix(model.UpdatedAt, 0).UTC()
	return nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id uint) (*entities.Role, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName busca pelo nome normalizado em minúsculas
func (r *RoleRepository) FindByName(ctx context.Context, name string) (*entities.Role, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *RoleRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entities.Role, error) {
	var model RoleModel

	db := dbFromContext(ctx, r.db)
	if err := db.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return roleToEntity(&model), nil
}

// FindByNames retorna os roles encontrados; nomes ausentes simplesmente não aparecem
func (r *RoleRepository) FindByNames(ctx context.Context, names []string) ([]*entities.Role, error) {
	if len(names) == 0 {
		return []*entities.Role{}, nil
	}

	var models []RoleModel
	db := dbFromContext(ctx, r.db)
	if err := db.Where("name IN ?", names).Order("id").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	return rolesToEntities(models), nil
}

func (r *RoleRepository) Update(ctx context.Context, role *entities.Role) error {
	model := roleToModel(role)
	model.UpdatedAt = time.Now().UTC().Unix()

	db := dbFromContext(ctx, r.db)
	result := db.Model(&RoleModel{ID: role.ID}).Select(roleMutableColumns).Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRoleNotFound
	}
	role.UpdatedAt = time.Unix(model.UpdatedAt, 0).UTC()
	return nil
}

func (r *RoleRepository) List(ctx context.Context, includeInactive bool) ([]*entities.Role, error) {
	var models []RoleModel

	db := dbFromContext(ctx, r.db)
	query := db.Model(&RoleModel{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("id").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}
	return rolesToEntities(models), nil
}

func roleToModel(role *entities.Role) *RoleModel {
	model := &RoleModel{
		ID:           role.ID,
		Name:         role.Name,
		DisplayName:  role.DisplayName,
		Description:  role.Description,
		IsSystemRole: role.IsSystemRole,
		IsActive:     role.IsActive,
	}
	if !role.CreatedAt.IsZero() {
		model.CreatedAt = role.CreatedAt.Unix()
	}
	return model
}

func roleToEntity(model *RoleModel) *entities.Role {
	return &entities.Role{
		ID:           model.ID,
		Name:         model.Name,
		DisplayName:  model.DisplayName,
		Description:  model.Description,
		IsSystemRole: model.IsSystemRole,
		IsActive:     model.IsActive,
		CreatedAt:    time.Unix(model.CreatedAt, 0).UTC(),
		UpdatedAt:    time.Unix(model.UpdatedAt, 0).UTC(),
	}
}

func rolesToEntities(models []RoleModel) []*entities.Role {
	roles := make([]*entities.Role, 0, len(models))
	for i := range models {
		roles = append(roles, roleToEntity(&models[i]))
	}
	return roles
}
