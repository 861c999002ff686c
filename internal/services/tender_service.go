package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/procurement-portal/internal/cache"
	"github.com/senyabanana/procurement-portal/internal/events"
	"github.com/senyabanana/procurement-portal/internal/lifecycle"
	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/repository"
	"github.com/senyabanana/procurement-portal/internal/utils"

	"github.com/sirupsen/logrus"
)

// commitAttempts ограничивает повторы при конфликте версий. Каждый повтор
// перечитывает снимок и заново прогоняет решение движка, слепых повторов нет.
const commitAttempts = 3

type TenderService struct {
	Repo   repository.TenderRepository
	Bids   repository.BidRepository
	Cache  *cache.Client
	Events *events.Publisher
	Logger *logrus.Logger
}

// NewTenderService создаёт новый экземпляр TenderService.
// Cache и Events могут быть nil - сервис работает и без них.
func NewTenderService(repo repository.TenderRepository, bids repository.BidRepository, cacheClient *cache.Client, publisher *events.Publisher, logger *logrus.Logger) *TenderService {
	return &TenderService{
		Repo:   repo,
		Bids:   bids,
		Cache:  cacheClient,
		Events: publisher,
		Logger: logger,
	}
}

// CreateTender создает новый тендер.
func (s *TenderService) CreateTender(ctx context.Context, req models.TenderRequest, p models.Principal) (*models.Tender, error) {
	tender, err := lifecycle.CreateTender(req, p, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err = s.Repo.CreateTender(ctx, tender); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx)
	s.publishEvent(ctx, events.Event{Type: events.TenderCreated, TenderID: tender.ID})
	return &tender, nil
}

// FetchPublicTenders возвращает публичную выдачу тендеров с учётом роли.
// Страница идёт через redis-кеш, проекция по роли считается на каждый вызов.
func (s *TenderService) FetchPublicTenders(ctx context.Context, limitStr, offsetStr string, categories []string, p models.Principal) ([]models.TenderView, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}

	var tenders []models.Tender
	if s.Cache != nil && len(categories) == 0 {
		if cached, cacheErr := s.Cache.GetPublicTenders(ctx, limit, offset); cacheErr != nil {
			s.Logger.WithError(cacheErr).Warn("public tenders cache read failed")
		} else if cached != nil {
			tenders = cached
		}
	}

	if tenders == nil {
		tenders, err = s.Repo.GetPublicTenders(ctx, limit, offset, categories)
		if err != nil {
			return nil, err
		}
		if s.Cache != nil && len(categories) == 0 {
			if cacheErr := s.Cache.SetPublicTenders(ctx, limit, offset, tenders); cacheErr != nil {
				s.Logger.WithError(cacheErr).Warn("public tenders cache write failed")
			}
		}
	}

	return lifecycle.ListPublicTenders(tenders, p), nil
}

// GetTender возвращает проекцию одного тендера для вызывающего.
// Непубличный тендер виден только владельцу и скрывается как несуществующий.
func (s *TenderService) GetTender(ctx context.Context, tenderID string, p models.Principal) (*models.TenderView, error) {
	tender, err := s.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	if !tender.IsPublic && !(p.Role == models.RoleCity && p.ID == tender.Owner) {
		return nil, lifecycle.NewError(lifecycle.NotFound, "tender not found")
	}

	view := lifecycle.TenderDetail(*tender, p)
	return &view, nil
}

// GetUserTenders возвращает тендеры, созданные вызывающим городским аккаунтом.
func (s *TenderService) GetUserTenders(ctx context.Context, limitStr, offsetStr string, p models.Principal) ([]models.Tender, error) {
	if p.Role != models.RoleCity {
		return nil, lifecycle.NewError(lifecycle.Forbidden, "only city accounts have own tenders")
	}

	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusBadRequest, err.Error())
	}
	return s.Repo.GetUserTenders(ctx, limit, offset, p.ID)
}

// PublishTender публикует черновик тендера.
func (s *TenderService) PublishTender(ctx context.Context, tenderID string, p models.Principal) (*models.Tender, error) {
	updated, err := s.commitTransition(ctx, tenderID, func(tender models.Tender) (models.Tender, error) {
		return lifecycle.Publish(tender, p)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{Type: events.TenderPublished, TenderID: updated.ID})
	return updated, nil
}

// CloseTender закрывает приём заявок по тендеру.
func (s *TenderService) CloseTender(ctx context.Context, tenderID string, p models.Principal) (*models.Tender, error) {
	updated, err := s.commitTransition(ctx, tenderID, func(tender models.Tender) (models.Tender, error) {
		return lifecycle.Close(tender, p)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{Type: events.TenderClosed, TenderID: updated.ID})
	return updated, nil
}

// EditTender применяет изменения описательных полей тендера.
func (s *TenderService) EditTender(ctx context.Context, tenderID string, p models.Principal, upd models.TenderUpdate) (*models.Tender, error) {
	return s.commitTransition(ctx, tenderID, func(tender models.Tender) (models.Tender, error) {
		return lifecycle.Modify(tender, p, upd)
	})
}

// AwardTender выбирает победителя тендера. Новый статус тендера и
// окончательные статусы всех заявок фиксируются одной транзакцией.
func (s *TenderService) AwardTender(ctx context.Context, tenderID, bidID string, p models.Principal) (*models.Tender, error) {
	for attempt := 0; attempt < commitAttempts; attempt++ {
		tender, err := s.loadTender(ctx, tenderID)
		if err != nil {
			return nil, err
		}
		bids, err := s.Bids.GetBidsForTender(ctx, tenderID)
		if err != nil {
			return nil, err
		}

		result, err := lifecycle.Award(lifecycle.Snapshot{Tender: *tender, Bids: bids}, bidID, p)
		if err != nil {
			return nil, err
		}

		err = s.Repo.CommitAward(ctx, result.Tender, result.Bids)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.invalidateCache(ctx)
		s.publishEvent(ctx, events.Event{Type: events.TenderAwarded, TenderID: tenderID, BidID: bidID})
		result.Tender.Version++
		return &result.Tender, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "tender was modified concurrently, please retry")
}

// CloseExpired закрывает открытые тендеры с истёкшим сроком подачи.
// Вызывается фоновой задачей из main.
func (s *TenderService) CloseExpired(ctx context.Context) error {
	closed, err := s.Repo.CloseExpiredTenders(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	if closed > 0 {
		s.Logger.WithField("count", closed).Info("closed tenders past submission deadline")
		s.invalidateCache(ctx)
	}
	return nil
}

// commitTransition перечитывает тендер, применяет решение движка и пытается
// записать результат под проверкой версии, повторяя цикл при конфликте.
func (s *TenderService) commitTransition(ctx context.Context, tenderID string, decide func(models.Tender) (models.Tender, error)) (*models.Tender, error) {
	for attempt := 0; attempt < commitAttempts; attempt++ {
		tender, err := s.loadTender(ctx, tenderID)
		if err != nil {
			return nil, err
		}

		proposed, err := decide(*tender)
		if err != nil {
			return nil, err
		}

		updated, err := s.Repo.UpdateTender(ctx, proposed)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.invalidateCache(ctx)
		return updated, nil
	}
	return nil, models.NewErrorResponse(http.StatusConflict, "tender was modified concurrently, please retry")
}

func (s *TenderService) loadTender(ctx context.Context, tenderID string) (*models.Tender, error) {
	tender, err := s.Repo.GetTenderByID(ctx, tenderID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, lifecycle.NewError(lifecycle.NotFound, "tender not found")
	}
	if err != nil {
		return nil, err
	}
	return tender, nil
}

func (s *TenderService) invalidateCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidatePublicTenders(ctx); err != nil {
		s.Logger.WithError(err).Warn("failed to invalidate public tenders cache")
	}
}

func (s *TenderService) publishEvent(ctx context.Context, event events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, event); err != nil {
		s.Logger.WithError(err).WithField("type", event.Type).Warn("failed to publish lifecycle event")
	}
}
