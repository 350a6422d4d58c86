package utils

import (
	"errors"
	"net/http"

	apperrors "it-inventory/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
	Total   *uint64     `json:"total,omitempty"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int, total ...uint64) error {
	response := &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	}
	if len(total) > 0 {
		response.Total = &total[0]
	}
	return ctx.JSON(code, response)
}

type errorMapping struct {
	target error
	code   int
}

// Порядок важен: первое совпадение по errors.Is определяет код ответа.
var errorCodes = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound},
	{apperrors.ErrDuplicate, http.StatusConflict},
	{apperrors.ErrInvalidTransition, http.StatusConflict},
	{apperrors.ErrNoMatchingCustodyRecord, http.StatusConflict},
	{apperrors.ErrNoMatchingTransferRecord, http.StatusConflict},
	{apperrors.ErrConflict, http.StatusConflict},
	{apperrors.ErrBadRequest, http.StatusBadRequest},
	{apperrors.ErrEmptyAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidAuthHeader, http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized},
	{apperrors.ErrInvalidSigningMethod, http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized},
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized},
	{apperrors.ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{apperrors.ErrForbidden, http.StatusForbidden},
	{apperrors.ErrUserDisabled, http.StatusForbidden},
	{apperrors.ErrAccountLocked, http.StatusTooManyRequests},
}

// ErrorResponse переводит ошибку в HTTP-ответ. Ошибки 5xx логируются целиком,
// клиенту уходит только общее сообщение.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code, message, details := resolveError(err)

	if code >= http.StatusInternalServerError {
		logger.Error("Внутренняя ошибка при обработке запроса",
			zap.String("method", ctx.Request().Method),
			zap.String("uri", ctx.Request().RequestURI),
			zap.Error(err),
		)
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    details,
		Message: message,
	})
}

func resolveError(err error) (int, string, interface{}) {
	var httpErr *apperrors.HttpError
	if errors.As(err, &httpErr) {
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, httpErr.Message, httpErr.Details
		}
		message := httpErr.Message
		if message == "" && httpErr.Err != nil {
			message = httpErr.Err.Error()
		}
		return httpErr.Code, message, httpErr.Details
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusBadRequest, "Ошибка валидации данных", fields
	}

	var inputErr *apperrors.InvalidInputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, inputErr.Message, nil
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		if msg, ok := echoErr.Message.(string); ok {
			return echoErr.Code, msg, nil
		}
		return echoErr.Code, http.StatusText(echoErr.Code), nil
	}

	for _, m := range errorCodes {
		if errors.Is(err, m.target) {
			return m.code, err.Error(), nil
		}
	}

	return http.StatusInternalServerError, "Внутренняя ошибка сервера", nil
}
