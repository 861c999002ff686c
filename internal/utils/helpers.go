package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/senyabanana/procurement-portal/internal/lifecycle"
	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/sirupsen/logrus"
)

// SendErrorResponse отправляет ошибку в формате JSON
func SendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := models.ErrorResponse{
		StatusCode: statusCode,
		Message:    message,
	}
	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		logrus.Println(err)
	}
}

// SendJSONResponse отправляет успешный ответ в формате JSON
func SendJSONResponse(w http.ResponseWriter, statusCode int, payload interface{}, logger *logrus.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Println(err)
	}
}

// HandleServiceError переводит ошибку сервисного слоя в HTTP-ответ.
// Типизированные отказы движка мапятся по причине, остальное - 500.
func HandleServiceError(w http.ResponseWriter, err error, logger *logrus.Logger, fallback string) {
	var lifecycleErr *lifecycle.Error
	if errors.As(err, &lifecycleErr) {
		logger.Println(err)
		SendErrorResponse(w, LifecycleStatusCode(lifecycleErr.Kind), lifecycleErr.Message)
		return
	}

	var errorResponse *models.ErrorResponse
	if errors.As(err, &errorResponse) {
		logger.Println(err)
		SendErrorResponse(w, errorResponse.StatusCode, errorResponse.Message)
		return
	}

	logger.Println(err)
	SendErrorResponse(w, http.StatusInternalServerError, fallback)
}

// LifecycleStatusCode возвращает HTTP-статус для причины отказа движка.
func LifecycleStatusCode(kind lifecycle.ErrorKind) int {
	switch kind {
	case lifecycle.InvalidState, lifecycle.DuplicateBid:
		return http.StatusConflict
	case lifecycle.DeadlinePassed, lifecycle.InvalidInput:
		return http.StatusBadRequest
	case lifecycle.NotFound:
		return http.StatusNotFound
	case lifecycle.Forbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ParseLimitOffset обрабатывает limit и offset
func ParseLimitOffset(limitStr, offsetStr string) (int, int, error) {
	var limit, offset int
	var err error

	if limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 || limit > 50 {
			return 0, 0, fmt.Errorf("invalid limit parameter, must be a positive integer [0:50]")
		}
	} else {
		limit = 5
	}

	if offsetStr != "" {
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("invalid offset parameter, must be a non-negative integer")
		}
	} else {
		offset = 0
	}

	return limit, offset, nil
}
