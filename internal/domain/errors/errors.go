package errors

import "errors"

// Kind classifica erros de domínio; o transporte traduz cada Kind para um status de protocolo
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindNotFound
	KindInvalid
	KindUnauthenticated
	KindForbidden
	KindUnavailable
)

// String retorna o nome do Kind
func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Business errors
// Nota: as mensagens são message IDs para i18n.
// As traduções devem estar em internal/infrastructure/i18n/locales/*.json
var (
	ErrUserNotFound         = New(KindNotFound, "error.user_not_found")
	ErrRoleNotFound         = New(KindNotFound, "error.role_not_found")
	ErrPhoneAlreadyExists   = New(KindConflict, "error.phone_already_exists")
	ErrRoleAlreadyExists    = New(KindConflict, "error.role_already_exists")
	ErrAlreadyVerified      = New(KindConflict, "error.already_verified")
	ErrAccountInactive      = New(KindForbidden, "error.account_inactive")
	ErrSystemRoleProtected  = New(KindForbidden, "error.system_role_protected")
	ErrMissingRole          = New(KindForbidden, "error.missing_role")
	ErrForbidden            = New(KindForbidden, "error.forbidden")
	ErrCannotDeactivateSelf = New(KindForbidden, "error.cannot_deactivate_self")
	ErrRoleInactive         = New(KindInvalid, "error.role_inactive")
	ErrNoPendingCode        = New(KindInvalid, "error.no_pending_code")
	ErrInvalidCode          = New(KindInvalid, "error.invalid_code")
	ErrCodeExpired          = New(KindInvalid, "error.code_expired")
	ErrInvalidPassword      = New(KindInvalid, "error.invalid_current_password")
	ErrUnauthorized         = New(KindUnauthenticated, "error.unauthorized")
	ErrInvalidCredentials   = New(KindUnauthenticated, "error.invalid_credentials")
	ErrMissingToken         = New(KindUnauthenticated, "error.missing_token")
	ErrTokenInvalid         = New(KindUnauthenticated, "error.token_invalid")
	ErrTokenExpired         = New(KindUnauthenticated, "error.token_expired")
	ErrTokenSubject         = New(KindUnauthenticated, "error.token_subject")
	ErrTokenUserNotFound    = New(KindUnauthenticated, "error.token_user_not_found")
	ErrStoreUnavailable     = New(KindUnavailable, "error.store_unavailable")
)

// Domain errors
var (
	ErrInvalidPhoneNumber = New(KindInvalid, "error.invalid_phone_number")
	ErrInvalidRoleName    = New(KindInvalid, "error.invalid_role_name")
	ErrInvalidUserData    = New(KindInvalid, "error.invalid_user_data")
)

// ProblemType define tipos de problemas (URIs RFC 7807)
// Nota: O domínio base virá de configuração (API_BASE_URL)
//
//nolint:misspell
const (
	ProblemTypeValidation      = "/problems/validation-error"
	ProblemTypeNotFound        = "/problems/not-found"
	ProblemTypeConflict        = "/problems/conflict"
	ProblemTypeUnauthorized    = "/problems/unauthorized"
	ProblemTypeForbidden       = "/problems/forbidden"
	ProblemTypeInternal        = "/problems/internal-error"
	ProblemTypeBadRequest      = "/problems/bad-request"
	ProblemTypeUnavailable     = "/problems/service-unavailable"
	ProblemTypeInvalidArgument = "/problems/invalid-credential"
)

// DomainError representa um erro de domínio com contexto adicional
type DomainError struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

// New cria um DomainError sem causa
func New(kind Kind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// Wrap cria um DomainError que encapsula a causa
func Wrap(kind Kind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

func (e *DomainError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithField retorna uma cópia do erro apontando o campo responsável.
// A cópia encapsula o sentinel original para que errors.Is continue funcionando.
func (e *DomainError) WithField(field string) *DomainError {
	return &DomainError{Kind: e.Kind, Message: e.Message, Field: field, Err: e}
}

// Unavailable encapsula uma falha de infraestrutura como KindUnavailable
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return Wrap(KindUnavailable, ErrStoreUnavailable.Message, err)
}

// KindOf resolve o Kind do erro atravessando wrapping; erros desconhecidos são KindInternal
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf retorna o message ID i18n do erro, ou "error.internal" para erros desconhecidos
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "error.internal"
}

// FieldOf retorna o campo associado ao erro, se houver
func FieldOf(err error) string {
	var de *DomainError
	for errors.As(err, &de) {
		if de.Field != "" {
			return de.Field
		}
		if de.Err == nil {
			return ""
		}
		err = de.Err
	}
	return ""
}
