package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/services"
	"github.com/senyabanana/procurement-portal/internal/utils"

	"github.com/sirupsen/logrus"
)

// AuthHandler - структура для обработки запросов регистрации и входа.
type AuthHandler struct {
	Service *services.AuthService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewAuthHandler создаёт новый экземпляр AuthHandler.
func NewAuthHandler(service *services.AuthService, logger *logrus.Logger, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// Register обрабатывает запросы регистрации.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Register(ctx, req)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to register user")
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, resp, h.Logger)
}

// Login обрабатывает запросы входа.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Login(ctx, req)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to login")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, resp, h.Logger)
}
