package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS configura CORS para a aplicação a partir da lista separada por vírgulas.
// "*" libera qualquer origem, sem credenciais.
func CORS(allowedOrigins string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}

	var origins []string
	for _, o := range strings.Split(allowedOrigins, ",") {
		o = strings.TrimSpace(o)
		if o == "*" {
			config.AllowAllOrigins = true
			return cors.New(config)
		}
		if o != "" {
			origins = append(origins, o)
		}
	}

	// Lista vazia se comporta como "*"
	if len(origins) == 0 {
		config.AllowAllOrigins = true
		return cors.New(config)
	}

	config.AllowOrigins = origins
	config.AllowCredentials = true
	return cors.New(config)
}
