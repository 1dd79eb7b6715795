package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/handlers/middleware"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/realtime"
)

// EventsHandler expõe o feed de eventos de conta por websocket
type EventsHandler struct {
	hub    *realtime.Hub
	gate   middleware.Gate
	logger ports.Logger
}

// NewEventsHandler cria um novo EventsHandler
func NewEventsHandler(hub *realtime.Hub, gate middleware.Gate, logger ports.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, gate: gate, logger: logger}
}

// Stream faz o upgrade para websocket e mantém a conexão até o cliente sair.
// Token e conta são revalidados durante a sessão: expiração, desativação ou
// perda do role admin encerram o feed.
//
//	@Summary	Stream account events
//	@Tags		admin
//	@Security	BearerAuth
//	@Param		access_token	query	string	false	"Bearer token, for browsers that cannot send headers"
//	@Success	101
//	@Router		/admin/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	token := c.GetString(middleware.AccessTokenContextKey)
	check := func(ctx context.Context) error {
		user, err := h.gate.Authenticate(ctx, token)
		if err != nil {
			return err
		}
		return h.gate.Authorize(user, entities.RoleAdmin)
	}

	if err := h.hub.ServeWS(c.Writer, c.Request, check); err != nil {
		h.logger.WithContext(c.Request.Context()).Warn("websocket session ended with error", "error", err)
	}
}
