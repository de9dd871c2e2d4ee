package models

import "fmt"

// Коды доменных ошибок.
const (
	CodeValidation           = "VALIDATION_ERROR"
	CodeAuth                 = "AUTH_ERROR"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeStorage              = "STORAGE_ERROR"
	CodeSummaryNotConfigured = "SUMMARY_NOT_CONFIGURED"
	CodeUpstreamAuth         = "UPSTREAM_AUTH"
	CodeUpstreamRateLimited  = "UPSTREAM_RATE_LIMITED"
	CodeUpstream             = "UPSTREAM_ERROR"
)

// DomainError — ошибка бизнес-уровня с машинным кодом и сообщением для клиента.
type DomainError struct {
	Code    string
	Message string
	Err     error // исходная причина, в ответ клиенту не попадает
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по коду, что позволяет использовать errors.Is.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrValidation           = &DomainError{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidCredentials   = &DomainError{Code: CodeAuth, Message: "Invalid credentials"}
	ErrUnauthorized         = &DomainError{Code: CodeAuth, Message: "unauthorized"}
	ErrForbidden            = &DomainError{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound             = &DomainError{Code: CodeNotFound, Message: "resource not found"}
	ErrConflict             = &DomainError{Code: CodeConflict, Message: "resource already exists"}
	ErrStorage              = &DomainError{Code: CodeStorage, Message: "storage failure"}
	ErrSummaryNotConfigured = &DomainError{Code: CodeSummaryNotConfigured, Message: "summary service is not configured"}
	ErrUpstreamAuth         = &DomainError{Code: CodeUpstreamAuth, Message: "summary service rejected the configured credentials"}
	ErrUpstreamRateLimited  = &DomainError{Code: CodeUpstreamRateLimited, Message: "summary service rate limit exceeded, please try again later"}
	ErrUpstream             = &DomainError{Code: CodeUpstream, Message: "summary service failed"}
)

// NewValidationError создаёт ошибку VALIDATION_ERROR с сообщением msg.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: msg}
}

// NewAuthError создаёт ошибку AUTH_ERROR с сообщением msg.
func NewAuthError(msg string) *DomainError {
	return &DomainError{Code: CodeAuth, Message: msg}
}

// NewNotFoundError создаёт ошибку NOT_FOUND с указанием ресурса.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// Wrap возвращает копию ошибки-шаблона с исходной причиной err.
func Wrap(tmpl *DomainError, err error) *DomainError {
	return &DomainError{Code: tmpl.Code, Message: tmpl.Message, Err: err}
}
