package services

import (
	"context"
	"strings"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
)

// AccessGate resolve bearer tokens para usuários e confere roles exigidos
type AccessGate struct {
	deps Dependencies
}

// NewAccessGate cria um novo AccessGate
func NewAccessGate(deps Dependencies) *AccessGate {
	return &AccessGate{deps: deps.withDefaults()}
}

// Authenticate valida assinatura e expiração do token e carrega o usuário do claim "sub".
// Token ausente, inválido ou expirado e usuário inexistente são Unauthenticated; conta inativa é Forbidden.
func (g *AccessGate) Authenticate(ctx context.Context, token string) (*entities.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainerrors.ErrMissingToken
	}

	userID, err := g.deps.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := g.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		g.deps.Logger.WithContext(ctx).Warn("token refers to missing user", "user_id", userID)
		return nil, domainerrors.ErrTokenUserNotFound
	}
	if !user.IsActive {
		return nil, domainerrors.ErrAccountInactive
	}
	return user, nil
}

// Authorize admite o usuário se ele tiver, ativo, algum dos roles exigidos.
// Sem roles exigidos basta estar autenticado.
func (g *AccessGate) Authorize(user *entities.User, roles ...string) error {
	if user == nil {
		return domainerrors.ErrUnauthorized
	}
	if len(roles) == 0 {
		return nil
	}
	for _, role := range roles {
		if user.HasRole(role) {
			return nil
		}
	}
	return domainerrors.ErrMissingRole
}
