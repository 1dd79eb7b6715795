package ports

import "context"

// Translator renderiza mensagens do catálogo i18n
type Translator interface {
	T(lang, key string, params ...map[string]interface{}) string
	GetDefaultLanguage() string
}

type languageKey struct{}

// ContextWithLanguage guarda o idioma da requisição no contexto
func ContextWithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext retorna o idioma da requisição, ou fallback se ausente
func LanguageFromContext(ctx context.Context, fallback string) string {
	if lang, ok := ctx.Value(languageKey{}).(string); ok && lang != "" {
		return lang
	}
	return fallback
}
