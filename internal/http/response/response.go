// Package response содержит вспомогательные типы и функции для формирования
// JSON-ответов с ошибками в едином формате и сопоставления доменных ошибок с HTTP-статусами.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qa-activity-tracker/internal/models"
)

const (
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"

	codeInternal = "INTERNAL_ERROR"
)

// ErrorResponse — структура ошибки, используется и в аннотациях @Failure Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
	Code   string `json:"code" example:"VALIDATION_ERROR"`
}

// MessageResponse — ответ с одним текстовым сообщением.
type MessageResponse struct {
	Message string `json:"message" example:"Password updated successfully"`
}

// Error возвращает ErrorResponse с сообщением msg и кодом code.
func Error(msg, code string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
		Code:   code,
	}
}

// StatusFor возвращает HTTP-статус для ошибки err. Ошибки вне доменной таксономии дают 500.
func StatusFor(err error) int {
	var de *models.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case models.CodeValidation:
		return http.StatusBadRequest
	case models.CodeAuth:
		return http.StatusUnauthorized
	case models.CodeForbidden:
		return http.StatusForbidden
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeConflict:
		return http.StatusConflict
	case models.CodeUpstreamAuth, models.CodeUpstreamRateLimited, models.CodeUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// FromError строит тело ответа для err. Подробности недоменных ошибок клиенту не передаются.
func FromError(err error) ErrorResponse {
	var de *models.DomainError
	if errors.As(err, &de) {
		return Error(de.Message, de.Code)
	}
	return Error("internal server error", codeInternal)
}

// WriteError пишет ответ с ошибкой err и соответствующим статусом.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, StatusFor(err))
	render.JSON(w, r, FromError(err))
}

// InvalidBody пишет ответ 400 для тела запроса, которое не удалось разобрать.
func InvalidBody(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, Error("invalid request body", models.CodeValidation))
}

// ValidationError формирует ErrorResponse на основе ошибок валидации.
// Каждое нарушение формируется в человекочитаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "), models.CodeValidation)
}

// Validate проверяет структуру v и при ошибке пишет ответ 400. Возвращает false, если ответ уже записан.
func Validate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}
	render.Status(r, http.StatusBadRequest)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		render.JSON(w, r, ValidationError(verrs))
		return false
	}
	render.JSON(w, r, Error(err.Error(), models.CodeValidation))
	return false
}
