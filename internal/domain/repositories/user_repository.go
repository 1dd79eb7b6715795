package repositories

import (
	"context"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

// UserRepository define a interface para persistência de usuários.
// Buscas retornam (nil, nil) quando o registro não existe.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByPhone(ctx context.Context, phone string) (*entities.User, error)
	// FindByPhoneForUpdate bloqueia a linha até o fim da transação corrente
	FindByPhoneForUpdate(ctx context.Context, phone string) (*entities.User, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	AddRoles(ctx context.Context, userID uint, roleIDs []uint) error
	RemoveRoles(ctx context.Context, userID uint, roleIDs []uint) error
	List(ctx context.Context, filters UserFilters) ([]*entities.User, int64, error)
}

// UserFilters contém filtros para listagem de usuários
type UserFilters struct {
	Role     *string
	IsActive *bool
	Page     int // Página (começa em 1)
	PageSize int // Itens por página (default: 20, max: 100)
}

// Normalize aplica os limites de paginação
func (f UserFilters) Normalize() UserFilters {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
	return f
}
