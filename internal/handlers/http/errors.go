package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/handlers/dto"
)

type problemMapping struct {
	status      int
	problemType string
	titleKey    string
}

var problemsByKind = map[domainerrors.Kind]problemMapping{
	domainerrors.KindConflict:        {http.StatusConflict, domainerrors.ProblemTypeConflict, "error.conflict.title"},
	domainerrors.KindNotFound:        {http.StatusNotFound, domainerrors.ProblemTypeNotFound, "error.not_found.title"},
	domainerrors.KindInvalid:         {http.StatusBadRequest, domainerrors.ProblemTypeValidation, "error.validation.title"},
	domainerrors.KindUnauthenticated: {http.StatusUnauthorized, domainerrors.ProblemTypeUnauthorized, "error.unauthorized.title"},
	domainerrors.KindForbidden:       {http.StatusForbidden, domainerrors.ProblemTypeForbidden, "error.forbidden.title"},
	domainerrors.KindUnavailable:     {http.StatusServiceUnavailable, domainerrors.ProblemTypeUnavailable, "error.unavailable.title"},
	domainerrors.KindInternal:        {http.StatusInternalServerError, domainerrors.ProblemTypeInternal, "error.internal.title"},
}

// StatusForError traduz o Kind do erro para o status HTTP
func StatusForError(err error) int {
	return problemsByKind[domainerrors.KindOf(err)].status
}

// ErrorResponder renderiza erros de domínio como problem documents
type ErrorResponder struct {
	logger ports.Logger
}

// NewErrorResponder cria um novo ErrorResponder
func NewErrorResponder(logger ports.Logger) *ErrorResponder {
	return &ErrorResponder{logger: logger}
}

// Respond escreve o erro; erros sem Kind viram 500 sem expor a causa
func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	kind := domainerrors.KindOf(err)
	mapping := problemsByKind[kind]

	if kind == domainerrors.KindInternal || kind == domainerrors.KindUnavailable {
		r.logger.WithContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(),
			"kind", kind.String(),
			"error", err,
		)
	}

	detail := dto.T(c, domainerrors.MessageOf(err))
	response := dto.NewErrorResponseI18n(c, mapping.problemType, mapping.titleKey, detail, mapping.status)
	if field := domainerrors.FieldOf(err); field != "" {
		response.Errors = []dto.ValidationError{{Field: field, Message: detail}}
	}

	dto.WriteProblem(c, response)
}

// RespondBinding trata falhas de binding: erros do validator viram lista de campos,
// o resto (JSON malformado) é bad request
func (r *ErrorResponder) RespondBinding(c *gin.Context, err error) {
	if fields := dto.ValidationErrors(c, err); fields != nil {
		dto.WriteProblem(c, dto.ValidationErrorResponseI18n(c, fields))
		return
	}

	response := dto.NewErrorResponseI18n(
		c,
		domainerrors.ProblemTypeBadRequest,
		"error.bad_request.title",
		dto.T(c, "error.invalid_request_body"),
		http.StatusBadRequest,
	)
	dto.WriteProblem(c, response)
}

// resultLabel é o rótulo de métrica para o resultado de uma operação
func resultLabel(err error) string {
	if err == nil {
		return "success"
	}
	return domainerrors.KindOf(err).String()
}
