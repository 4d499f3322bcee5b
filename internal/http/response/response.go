// Package response формирует JSON-ответы обработчиков в едином формате.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

const (
	// StatusOK - значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError - значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// Машиночитаемые коды ошибок для клиента.
const (
	CodeNeedsRegistration = "NEEDS_REGISTRATION"
	CodePremiumRequired   = "PREMIUM_REQUIRED"
	CodeLimit             = "LIMIT"
)

// ErrorResponse - тело ответа с ошибкой. Code, Reason и Limit заполняются,
// когда клиенту нужно отличить одну ошибку от другой.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
	Code   string `json:"code,omitempty" example:"LIMIT"`
	Reason string `json:"reason,omitempty"`
	Limit  *int   `json:"limit,omitempty"`
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ErrorWithCode возвращает ответ с ошибкой и кодом.
func ErrorWithCode(msg, code string) ErrorResponse {
	resp := Error(msg)
	resp.Code = code
	return resp
}

// WithReason дополняет ответ причиной отказа.
func (e ErrorResponse) WithReason(reason string) ErrorResponse {
	e.Reason = reason
	return e
}

// WithLimit дополняет ответ лимитом тарифа.
func (e ErrorResponse) WithLimit(limit int) ErrorResponse {
	e.Limit = &limit
	return e
}

// ValidationError формирует ответ на основе ошибок валидации.
// Каждое нарушение превращается в читаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "url":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid url", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Error(strings.Join(errsMsgs, ", "))
}
