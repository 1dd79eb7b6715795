package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/metrics"
)

const (
	// CurrentUserContextKey guarda o usuário autenticado no contexto do Gin
	CurrentUserContextKey = "current_user"
	// AccessTokenContextKey guarda o token que autenticou a requisição
	AccessTokenContextKey = "access_token"
)

// Gate resolve tokens e confere roles
type Gate interface {
	Authenticate(ctx context.Context, token string) (*entities.User, error)
	Authorize(user *entities.User, roles ...string) error
}

// ErrorRenderer escreve a resposta de erro e aborta a requisição
type ErrorRenderer func(c *gin.Context, err error)

// AuthMiddleware aplica o gate de acesso às rotas protegidas
type AuthMiddleware struct {
	gate    Gate
	onError ErrorRenderer
}

// NewAuthMiddleware cria um novo middleware de autenticação
func NewAuthMiddleware(gate Gate, onError ErrorRenderer) *AuthMiddleware {
	return &AuthMiddleware{gate: gate, onError: onError}
}

// RequireAuth admite qualquer usuário autenticado e ativo
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return m.RequireRole()
}

// RequireRole admite usuários com algum dos roles informados (sem diferenciar maiúsculas).
// O token vem apenas do header Authorization.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return m.guard(bearerToken, roles)
}

// RequireRoleWS é o RequireRole das rotas de websocket. Navegadores não enviam
// headers no handshake, então ali o query parameter access_token também vale.
// O token aceito fica em AccessTokenContextKey para revalidar a sessão.
func (m *AuthMiddleware) RequireRoleWS(roles ...string) gin.HandlerFunc {
	return m.guard(websocketToken, roles)
}

func (m *AuthMiddleware) guard(extract func(*gin.Context) string, roles []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extract(c)
		user, err := m.gate.Authenticate(c.Request.Context(), token)
		if err == nil {
			err = m.gate.Authorize(user, roles...)
		}
		if err != nil {
			metrics.AccessDecisionsTotal.WithLabelValues(domainerrors.KindOf(err).String()).Inc()
			m.onError(c, err)
			c.Abort()
			return
		}

		metrics.AccessDecisionsTotal.WithLabelValues("allowed").Inc()
		c.Set(CurrentUserContextKey, user)
		c.Set(AccessTokenContextKey, token)
		c.Next()
	}
}

// bearerToken lê "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}

// websocketToken prefere o header; sem ele, usa ?access_token=
func websocketToken(c *gin.Context) string {
	if c.GetHeader("Authorization") != "" {
		return bearerToken(c)
	}
	return c.Query("access_token")
}

// CurrentUser retorna o usuário autenticado pela RequireAuth/RequireRole
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	v, ok := c.Get(CurrentUserContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*entities.User)
	return user, ok && user != nil
}
