package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
)

// RequestIDHeader é propagado do cliente quando presente
const RequestIDHeader = "X-Request-ID"

// RequestID garante um identificador por requisição no header de resposta e no context.Context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}
