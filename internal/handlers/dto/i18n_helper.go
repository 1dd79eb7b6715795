package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/handlers/middleware"
)

// T é um helper para traduzir mensagens no contexto do Gin
// Uso: dto.T(c, "message.password_changed")
func T(c *gin.Context, key string, params ...map[string]interface{}) string {
	// Buscar serviço i18n do contexto
	translator, exists := c.Get(middleware.I18nServiceContextKey)
	if !exists {
		// Fallback: retornar a chave se serviço não estiver disponível
		return key
	}

	service, ok := translator.(ports.Translator)
	if !ok {
		return key
	}

	return service.T(GetLanguage(c), key, params...)
}

// GetLanguage retorna o idioma configurado no contexto da requisição
func GetLanguage(c *gin.Context) string {
	lang, exists := c.Get(middleware.LanguageContextKey)
	if !exists {
		return "en" // Fallback
	}

	langStr, ok := lang.(string)
	if !ok {
		return "en"
	}

	return langStr
}
