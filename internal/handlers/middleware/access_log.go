package middleware

import (
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
)

// AccessLog substitui o logger padrão do gin. A query string fica de fora da
// linha porque o feed de eventos recebe o token em ?access_token=.
func AccessLog(output io.Writer) gin.HandlerFunc {
	if output == nil {
		output = gin.DefaultWriter
	}
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    output,
		Formatter: accessLogFormatter,
	})
}

func accessLogFormatter(param gin.LogFormatterParams) string {
	path := param.Path
	if param.Request != nil && param.Request.URL != nil {
		path = param.Request.URL.Path
	}

	requestID := ""
	if param.Request != nil {
		requestID = logging.RequestIDFromContext(param.Request.Context())
	}

	return fmt.Sprintf("[GIN] %v | %3d | %13v | %15s | %-7s %#v | %s\n%s",
		param.TimeStamp.Format("2006/01/02 - 15:04:05"),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		path,
		requestID,
		param.ErrorMessage,
	)
}
