package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/senyabanana/procurement-portal/internal/auth"
	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/services"
	"github.com/senyabanana/procurement-portal/internal/utils"

	"github.com/sirupsen/logrus"
)

// TenderHandler - структура для обработки HTTP-запросов по тендерам.
type TenderHandler struct {
	Service *services.TenderService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewTenderHandler создаёт новый экземпляр TenderHandler.
func NewTenderHandler(service *services.TenderService, logger *logrus.Logger, timeout time.Duration) *TenderHandler {
	return &TenderHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// GetTenders обрабатывает запросы для получения публичной выдачи тендеров.
func (h *TenderHandler) GetTenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	categories := r.URL.Query()["category"]
	principal := auth.PrincipalFromContext(r.Context())

	tenders, err := h.Service.FetchPublicTenders(ctx, limitStr, offsetStr, categories, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to fetch tenders")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tenders, h.Logger)
}

// CreateTender обрабатывает запросы для создания тендера.
func (h *TenderHandler) CreateTender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var tenderReq models.TenderRequest
	if err := json.NewDecoder(r.Body).Decode(&tenderReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	tender, err := h.Service.CreateTender(ctx, tenderReq, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to create tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, tender, h.Logger)
}

// GetUserTenders обрабатывает запросы для получения тендеров вызывающего.
func (h *TenderHandler) GetUserTenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	principal := auth.PrincipalFromContext(r.Context())

	tenders, err := h.Service.GetUserTenders(ctx, limitStr, offsetStr, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to fetch tenders")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tenders, h.Logger)
}

// GetTender обрабатывает запросы для получения одного тендера.
func (h *TenderHandler) GetTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderID := r.PathValue("tenderId")
	principal := auth.PrincipalFromContext(r.Context())

	tender, err := h.Service.GetTender(ctx, tenderID, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to fetch tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tender, h.Logger)
}

// PublishTender обрабатывает запросы для публикации черновика.
func (h *TenderHandler) PublishTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderID := r.PathValue("tenderId")
	principal := auth.PrincipalFromContext(r.Context())

	tender, err := h.Service.PublishTender(ctx, tenderID, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to publish tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tender, h.Logger)
}

// CloseTender обрабатывает запросы для закрытия приёма заявок.
func (h *TenderHandler) CloseTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderID := r.PathValue("tenderId")
	principal := auth.PrincipalFromContext(r.Context())

	tender, err := h.Service.CloseTender(ctx, tenderID, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to close tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tender, h.Logger)
}

// AwardTender обрабатывает запросы для выбора победителя тендера.
func (h *TenderHandler) AwardTender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderID := r.PathValue("tenderId")
	bidID := r.PathValue("bidId")
	principal := auth.PrincipalFromContext(r.Context())

	tender, err := h.Service.AwardTender(ctx, tenderID, bidID, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to award tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tender, h.Logger)
}

// EditTender обрабатывает запросы для изменения описательных полей тендера.
func (h *TenderHandler) EditTender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only PUT or PATCH is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var upd models.TenderUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tenderID := r.PathValue("tenderId")
	principal := auth.PrincipalFromContext(r.Context())

	tender, err := h.Service.EditTender(ctx, tenderID, principal, upd)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to edit tender")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tender, h.Logger)
}
