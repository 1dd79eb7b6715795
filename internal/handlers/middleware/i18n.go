package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

const (
	// LanguageContextKey é a chave usada para armazenar o idioma no contexto do Gin
	LanguageContextKey = "language"
	// I18nServiceContextKey é a chave usada para armazenar o serviço i18n no contexto
	I18nServiceContextKey = "i18n_service"
)

// LanguageCatalog é o tradutor com a lista de idiomas carregados
type LanguageCatalog interface {
	ports.Translator
	IsLanguageSupported(lang string) bool
	GetSupportedLanguages() []string
}

// I18nMiddleware gerencia a detecção de idioma nas requisições
type I18nMiddleware struct {
	i18nService LanguageCatalog
}

// NewI18nMiddleware cria um novo middleware de i18n
func NewI18nMiddleware(i18nService LanguageCatalog) *I18nMiddleware {
	return &I18nMiddleware{
		i18nService: i18nService,
	}
}

// DetectLanguage detecta e configura o idioma da requisição
// Prioridade:
// 1. Query parameter ?lang=pt-BR (override explícito)
// 2. Accept-Language header (preferência do browser)
// 3. Idioma padrão (fallback)
//
// O idioma também vai para o context.Context da requisição, onde os serviços o
// usam para renderizar o SMS.
func (m *I18nMiddleware) DetectLanguage() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string

		if queryLang := c.Query("lang"); queryLang != "" {
			if m.i18nService.IsLanguageSupported(queryLang) {
				lang = queryLang
			}
		}

		if lang == "" {
			lang = m.parseAcceptLanguage(c.GetHeader("Accept-Language"))
		}

		if lang == "" {
			lang = m.i18nService.GetDefaultLanguage()
		}

		c.Set(LanguageContextKey, lang)
		c.Set(I18nServiceContextKey, m.i18nService)
		c.Request = c.Request.WithContext(ports.ContextWithLanguage(c.Request.Context(), lang))

		c.Next()
	}
}

// parseAcceptLanguage analisa o header Accept-Language e retorna o melhor idioma suportado
// Exemplo: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7" -> "pt-BR"
func (m *I18nMiddleware) parseAcceptLanguage(acceptLang string) string {
	if acceptLang == "" {
		return ""
	}

	for _, lang := range strings.Split(acceptLang, ",") {
		// Remover peso (;q=0.9) se existir
		lang = strings.TrimSpace(lang)
		if idx := strings.Index(lang, ";"); idx != -1 {
			lang = lang[:idx]
		}
		if lang == "" || lang == "*" {
			continue
		}

		if m.i18nService.IsLanguageSupported(lang) {
			return lang
		}

		// Variação sem região (fr-CA -> fr)
		base := lang
		if idx := strings.Index(lang, "-"); idx != -1 {
			base = lang[:idx]
			if m.i18nService.IsLanguageSupported(base) {
				return base
			}
		}

		// Idioma sem região casando com um catálogo regional (pt -> pt-BR)
		for _, supported := range m.i18nService.GetSupportedLanguages() {
			if strings.HasPrefix(strings.ToLower(supported), strings.ToLower(base)+"-") {
				return supported
			}
		}
	}

	return ""
}
