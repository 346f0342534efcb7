package handlers

import (
	"errors"
	"net/http"

	"taskMaster/internal/codec"
	"taskMaster/internal/identity"
	"taskMaster/internal/live"
	"taskMaster/internal/logger"
	repo "taskMaster/internal/repository"
	"taskMaster/internal/service"

	"go.uber.org/zap"
)

// handleError переводит ошибку слоя сервиса в HTTP-ответ
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	var (
		decodeErr *codec.DecodeError
		authErr   *identity.AuthError
	)
	switch {
	case errors.Is(err, repo.ErrNotFound), errors.Is(err, live.ErrUnknownQuery):
		logger.Warn("HTTP: Не найдено", zap.String("operation", operation), zap.Error(err))
		responseWithError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, identity.ErrNotAuthenticated):
		responseWithError(w, http.StatusUnauthorized, err.Error())

	case errors.As(err, &authErr):
		logger.Warn("HTTP: Отказ провайдера", zap.String("operation", operation), zap.String("op", authErr.Op))
		responseWithJSON(w, http.StatusUnauthorized,
			toPayload("error", "AUTH_ERROR"),
			toPayload("message", authErr.Message),
		)

	case errors.As(err, &decodeErr), errors.Is(err, live.ErrInvalidArgument):
		logger.Warn("HTTP: Неверное значение", zap.String("operation", operation), zap.Error(err))
		responseWithError(w, http.StatusUnprocessableEntity, err.Error())

	default:
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", operation),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusInternalServerError, err.Error())
	}
}

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case "VALIDATION_ERROR", "NESTED_SUBTASK":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
