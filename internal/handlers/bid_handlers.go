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

// BidHandler - структура для обработки HTTP-запросов по заявкам.
type BidHandler struct {
	Service *services.BidService
	Logger  *logrus.Logger
	Timeout time.Duration
}

// NewBidHandler создаёт новый экземпляр BidHandler.
func NewBidHandler(service *services.BidService, logger *logrus.Logger, timeout time.Duration) *BidHandler {
	return &BidHandler{
		Service: service,
		Logger:  logger,
		Timeout: timeout,
	}
}

// CreateBid обрабатывает запросы для подачи заявки на тендер.
func (h *BidHandler) CreateBid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only POST is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	var bidReq models.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&bidReq); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	principal := auth.PrincipalFromContext(r.Context())
	bid, err := h.Service.SubmitBid(ctx, bidReq, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to submit bid")
		return
	}

	utils.SendJSONResponse(w, http.StatusCreated, bid, h.Logger)
}

// GetUserBids обрабатывает запросы для получения заявок вызывающей компании.
func (h *BidHandler) GetUserBids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")
	principal := auth.PrincipalFromContext(r.Context())

	bids, err := h.Service.GetUserBids(ctx, limitStr, offsetStr, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to fetch bids")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, bids, h.Logger)
}

// GetTenderBids обрабатывает запросы для получения заявок по тендеру.
func (h *BidHandler) GetTenderBids(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid method, only GET is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	tenderID := r.PathValue("tenderId")
	principal := auth.PrincipalFromContext(r.Context())

	listing, err := h.Service.ListBids(ctx, tenderID, principal)
	if err != nil {
		utils.HandleServiceError(w, err, h.Logger, "failed to fetch bids")
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, listing, h.Logger)
}
