package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/repositories"
	"github.com/rafabene/carelink-accounts/internal/domain/valueobjects"
)

// Colunas mutáveis pelo ciclo de vida; telefone e created_at nunca mudam
var userMutableColumns = []string{
	"full_name",
	"gender",
	"birth_date",
	"password",
	"is_active",
	"is_verified",
	"verification_code",
	"verification_code_expires",
	"password_reset_token",
	"password_reset_expires",
	"updated_at",
}

// UserRepository implementa repositories.UserRepository
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository cria um novo UserRepository
func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepository{db: db}
}

// Create insere o usuário e suas associações de role.
// Deve rodar dentro de uma transação para que a falha em qualquer etapa não deixe usuário parcial.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	model := r.toModel(user)

	db := dbFromContext(ctx, r.db)
	if err := db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrPhoneAlreadyExists.WithField("phone_number")
		}
		return translateError(err)
	}

	user.ID = model.ID
	user.CreatedAt = time.Unix(model.CreatedAt, 0).UTC()
	user.UpdatedAt = time.Unix(model.UpdatedAt, 0).UTC()

	roleIDs := make([]uint, 0, len(user.Roles))
	for _, role := range user.Roles {
		roleIDs = append(roleIDs, role.ID)
	}
	return r.AddRoles(ctx, user.ID, roleIDs)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*entities.User, error) {
	return r.findOne(ctx, false, "id = ?", id)
}

func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uint) (*entities.User, error) {
	return r.findOne(ctx, true, "id = ?", id)
}

func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*entities.User, error) {
	return r.findOne(ctx, false, "phone_number = ?", phone)
}

func (r *UserRepository) FindByPhoneForUpdate(ctx context.Context, phone string) (*entities.User, error) {
	return r.findOne(ctx, true, "phone_number = ?", phone)
}

func (r *UserRepository) findOne(ctx context.Context, lock bool, query string, args ...interface{}) (*entities.User, error) {
	var model UserModel

	db := dbFromContext(ctx, r.db)
	q := db
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}

	roles, err := loadRoles(db, []uint{model.ID})
	if err != nil {
		return nil, err
	}

	return r.toEntity(&model, roles[model.ID])
}

// Update persiste os campos mutáveis, inclusive os que voltam a nil
func (r *UserRepository) Update(ctx context.Context, user *entities.User) error {
	model := r.toModel(user)
	model.UpdatedAt = time.Now().UTC().Unix()

	db := dbFromContext(ctx, r.db)
	result := db.Model(&UserModel{ID: user.ID}).Select(userMutableColumns).Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	user.UpdatedAt = time.Unix(model.UpdatedAt, 0).UTC()
	return nil
}

// AddRoles insere associações em lote; associações existentes são ignoradas
func (r *UserRepository) AddRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	if len(roleIDs) == 0 {
		return nil
	}

	links := make([]UserRoleModel, 0, len(roleIDs))
	for _, id := range roleIDs {
		links = append(links, UserRoleModel{UserID: userID, RoleID: id})
	}

	db := dbFromContext(ctx, r.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// RemoveRoles remove associações em lote; associações inexistentes são ignoradas
func (r *UserRepository) RemoveRoles(ctx context.Context, userID uint, roleIDs []uint) error {
	if len(roleIDs) == 0 {
		return nil
	}

	db := dbFromContext(ctx, r.db)
	err := db.Where("user_id = ? AND role_id IN ?", userID, roleIDs).Delete(&UserRoleModel{}).Error
	return translateError(err)
}

func (r *UserRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*entities.User, int64, error) {
	filters = filters.Normalize()

	db := dbFromContext(ctx, r.db)
	query := db.Model(&UserModel{})

	// Aplicar filtros
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Role != nil {
		holders := db.Table("user_roles").
			Select("user_roles.user_id").
			Joins("JOIN roles ON roles.id = user_roles.role_id").
			Where("roles.name = ?", *filters.Role)
		query = query.Where("id IN (?)", holders)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	// Paginação
	offset := (filters.Page - 1) * filters.PageSize
	var models []*UserModel
	if err := query.Order("id").Limit(filters.PageSize).Offset(offset).Find(&models).Error; err != nil {
		return nil, 0, translateError(err)
	}

	ids := make([]uint, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	roles, err := loadRoles(db, ids)
	if err != nil {
		return nil, 0, err
	}

	users := make([]*entities.User, 0, len(models))
	for _, m := range models {
		user, err := r.toEntity(m, roles[m.ID])
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, nil
}

// loadRoles carrega os roles de cada usuário em duas consultas
func loadRoles(db *gorm.DB, userIDs []uint) (map[uint][]entities.Role, error) {
	result := make(map[uint][]entities.Role, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	var links []UserRoleModel
	if err := db.Where("user_id IN ?", userIDs).Find(&links).Error; err != nil {
		return nil, translateError(err)
	}
	if len(links) == 0 {
		return result, nil
	}

	roleIDs := make([]uint, 0, len(links))
	for _, l := range links {
		roleIDs = append(roleIDs, l.RoleID)
	}

	var models []RoleModel
	if err := db.Where("id IN ?", roleIDs).Order("id").Find(&models).Error; err != nil {
		return nil, translateError(err)
	}

	byID := make(map[uint]entities.Role, len(models))
	for i := range models {
		byID[models[i].ID] = *roleToEntity(&models[i])
	}

	for _, l := range links {
		if role, ok := byID[l.RoleID]; ok {
			result[l.UserID] = append(result[l.UserID], role)
		}
	}
	return result, nil
}

// Conversores
func (r *UserRepository) toModel(user *entities.User) *UserModel {
	model := &UserModel{
		ID:                      user.ID,
		FullName:                user.FullName,
		PhoneNumber:             user.PhoneNumber.String(),
		Gender:                  user.Gender,
		BirthDate:               user.BirthDate,
		Password:                user.PasswordHash,
		IsActive:                user.IsActive,
		IsVerified:              user.IsVerified,
		VerificationCode:        user.VerificationCode,
		VerificationCodeExpires: user.VerificationCodeExpires,
		PasswordResetToken:      user.PasswordResetToken,
		PasswordResetExpires:    user.PasswordResetExpires,
	}
	if !user.CreatedAt.IsZero() {
		model.CreatedAt = user.CreatedAt.Unix()
	}
	return model
}

func (r *UserRepository) toEntity(model *UserModel, roles []entities.Role) (*entities.User, error) {
	phone, err := valueobjects.NewPhoneNumber(model.PhoneNumber)
	if err != nil {
		return nil, err
	}

	return &entities.User{
		ID:                      model.ID,
		FullName:                model.FullName,
		PhoneNumber:             phone,
		Gender:                  model.Gender,
		BirthDate:               model.BirthDate,
		PasswordHash:            model.Password,
		IsActive:                model.IsActive,
		IsVerified:              model.IsVerified,
		VerificationCode:        model.VerificationCode,
		VerificationCodeExpires: model.VerificationCodeExpires,
		PasswordResetToken:      model.PasswordResetToken,
		PasswordResetExpires:    model.PasswordResetExpires,
		Roles:                   roles,
		CreatedAt:               time.Unix(model.CreatedAt, 0).UTC(),
		UpdatedAt:               time.Unix(model.UpdatedAt, 0).UTC(),
	}, nil
}
