package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/procurement-portal/internal/events"
	"github.com/senyabanana/procurement-portal/internal/lifecycle"
	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/repository"
	"github.com/senyabanana/procurement-portal/internal/utils"

	"github.com/sirupsen/logrus"
)

type BidService struct {
	Repo    repository.BidRepository
	Tenders repository.TenderRepository
	Events  *events.Publisher
	Logger  *logrus.Logger
}

// NewBidService создаёт новый экземпляр BidService.
func NewBidService(repo repository.BidRepository, tenders repository.TenderRepository, publisher *events.Publisher, logger *logrus.Logger) *BidService {
	return &BidService{
		Repo:    repo,
		Tenders: tenders,
		Events:  publisher,
		Logger:  logger,
	}
}

// SubmitBid подаёт заявку компании на тендер. Решение принимает движок по
// снимку, а вставка в базе обусловлена статусом и версией тендера из этого
// снимка: если тендер конкурентно закрыли или наградили, коммит не проходит,
// снимок перечитывается и решение принимается заново. Уникальный индекс
// подстраховывает от конкурентного дубля.
func (s *BidService) SubmitBid(ctx context.Context, req models.BidRequest, p models.Principal) (*models.Bid, error) {
	if req.TenderID == "" {
		return nil, models.NewErrorResponse(http.StatusBadRequest, "missing required field: tenderId")
	}

	for attempt := 0; attempt < commitAttempts; attempt++ {
		tender, err := s.loadTender(ctx, req.TenderID)
		if err != nil {
			return nil, err
		}
		bids, err := s.Repo.GetBidsForTender(ctx, req.TenderID)
		if err != nil {
			return nil, err
		}

		bid, err := lifecycle.SubmitBid(lifecycle.Snapshot{Tender: *tender, Bids: bids}, p, req, time.Now().UTC())
		if err != nil {
			return nil, err
		}

		err = s.Repo.CreateBid(ctx, bid, tender.Version)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, repository.ErrDuplicateBid) {
			return nil, lifecycle.NewError(lifecycle.DuplicateBid, "this company has already bid on this tender")
		}
		if err != nil {
			return nil, err
		}

		s.publishEvent(ctx, events.Event{Type: events.BidSubmitted, TenderID: tender.ID, BidID: bid.ID})
		return &bid, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "tender was modified concurrently, please retry")
}

// ListBids возвращает заявки тендера с учётом роли вызывающего.
func (s *BidService) ListBids(ctx context.Context, tenderID string, p models.Principal) (*models.BidListing, error) {
	tender, err := s.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	bids, err := s.Repo.GetBidsForTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	listing, err := lifecycle.ListBids(lifecycle.Snapshot{Tender: *tender, Bids: bids}, p)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetUserBids возвращает заявки, поданные вызывающей компанией.
func (s *BidService) GetUserBids(ctx context.Context, limitStr, offsetStr string, p models.Principal) ([]models.Bid, error) {
	if p.Role != models.RoleCompany {
		return nil, lifecycle.NewError(lifecycle.Forbidden, "only company accounts have own bids")
	}

	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Repo.GetUserBids(ctx, limit, offset, p.ID)
}

func (s *BidService) loadTender(ctx context.Context, tenderID string) (*models.Tender, error) {
	tender, err := s.Tenders.GetTenderByID(ctx, tenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, lifecycle.NewError(lifecycle.NotFound, "tender not found")
	}
	if err != nil {
		return nil, err
	}
	return tender, nil
}

func (s *BidService) publishEvent(ctx context.Context, event events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Logger.WithError(err).WithField("type", event.Type).Warn("failed to publish lifecycle event")
	}
}
