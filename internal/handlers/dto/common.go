package dto

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moogar0880/problems"
)

// ErrorResponse segue RFC 7807 (Problem Details for HTTP APIs)
type ErrorResponse struct {
	*problems.Problem
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError representa um erro de validação de campo
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// MessageResponse é o envelope {message, success} das operações sem entidade de retorno
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// PageMeta descreve a paginação de uma listagem
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// NewMessageResponse traduz a chave e monta o envelope de sucesso
func NewMessageResponse(c *gin.Context, key string) MessageResponse {
	return MessageResponse{Message: T(c, key), Success: true}
}

// NewErrorResponseI18n cria uma resposta de erro usando i18n.
// A URI do tipo é prefixada com a base URL configurada (API_BASE_URL).
func NewErrorResponseI18n(c *gin.Context, problemType, titleKey, detail string, status int) ErrorResponse {
	baseURL := c.GetString("base_url")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	problem := problems.NewDetailedProblem(status, detail)
	problem.Type = baseURL + problemType
	problem.Title = T(c, titleKey)
	problem.Instance = c.Request.URL.Path

	return ErrorResponse{Problem: problem}
}

// ValidationErrorResponseI18n cria uma resposta de erro de validação
func ValidationErrorResponseI18n(c *gin.Context, validationErrors []ValidationError) ErrorResponse {
	response := NewErrorResponseI18n(
		c,
		"/problems/validation-error",
		"error.validation.title",
		T(c, "error.validation.detail"),
		http.StatusBadRequest,
	)
	response.Errors = validationErrors
	return response
}

// WriteProblem escreve o problem document com o media type da RFC 7807 e aborta a cadeia
func WriteProblem(c *gin.Context, response ErrorResponse) {
	c.Header("Content-Type", problems.ProblemMediaType)
	c.AbortWithStatusJSON(response.Status, response)
}
