package lifecycle

import (
	"fmt"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/google/uuid"
)

// Snapshot - снимок тендера и его заявок, по которому принимается решение.
// Движок читает снимок и предлагает новое состояние, хранилищем не владеет.
type Snapshot struct {
	Tender models.Tender
	Bids   []models.Bid
}

// AwardResult - предложенный результат выбора победителя: новый тендер
// и все заявки с окончательными статусами. Фиксируется одним коммитом.
type AwardResult struct {
	Tender models.Tender
	Bids   []models.Bid
}

// CreateTender проверяет запрос и строит новый тендер.
// Создатель выбирает начальный статус: черновик или сразу открытый.
func CreateTender(req models.TenderRequest, p models.Principal, now time.Time) (models.Tender, error) {
	if p.Role != models.RoleCity {
		return models.Tender{}, NewError(Forbidden, "only city accounts may create tenders")
	}
	if req.Title == "" || req.Description == "" {
		return models.Tender{}, NewError(InvalidInput, "title and description are required")
	}
	if req.Budget < 0 {
		return models.Tender{}, NewError(InvalidInput, "budget must be non-negative")
	}
	if !req.SubmissionDeadline.After(now) {
		return models.Tender{}, NewError(InvalidInput, "submission deadline must be after the notice date")
	}

	status := models.DraftTender
	if req.Publish {
		status = models.OpenTender
	}
	return models.Tender{
		ID:                 uuid.New().String(),
		Owner:              p.ID,
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Requirements:       req.Requirements,
		Budget:             req.Budget,
		Location:           req.Location,
		NoticeDate:         now,
		SubmissionDeadline: req.SubmissionDeadline,
		IsPublic:           req.IsPublic,
		Status:             status,
		Version:            1,
	}, nil
}

// Publish переводит тендер из черновика в открытый.
func Publish(tender models.Tender, p models.Principal) (models.Tender, error) {
	if !isOwner(tender, p) {
		return models.Tender{}, NewError(Forbidden, "only the owning city account may publish this tender")
	}
	if tender.Status != models.DraftTender {
		return models.Tender{}, NewError(InvalidState, fmt.Sprintf("cannot publish tender in status %s", tender.Status))
	}
	tender.Status = models.OpenTender
	return tender, nil
}

// Close закрывает приём заявок. Допустимо в любой момент, пока тендер открыт,
// в том числе до срока подачи.
func Close(tender models.Tender, p models.Principal) (models.Tender, error) {
	if !isOwner(tender, p) {
		return models.Tender{}, NewError(Forbidden, "only the owning city account may close this tender")
	}
	if tender.Status != models.OpenTender {
		return models.Tender{}, NewError(InvalidState, fmt.Sprintf("cannot close tender in status %s", tender.Status))
	}
	tender.Status = models.ClosedTender
	return tender, nil
}

// Award выбирает победителя среди заявок тендера. Победившая заявка становится
// ACCEPTED, все остальные PENDING-заявки - REJECTED, тендер - AWARDED.
// Результат применяется целиком или не применяется вовсе.
func Award(snap Snapshot, bidID string, p models.Principal) (AwardResult, error) {
	if !isOwner(snap.Tender, p) {
		return AwardResult{}, NewError(Forbidden, "only the owning city account may award this tender")
	}
	if snap.Tender.Status != models.OpenTender && snap.Tender.Status != models.ClosedTender {
		return AwardResult{}, NewError(InvalidState, fmt.Sprintf("cannot award tender in status %s", snap.Tender.Status))
	}

	var winner *models.Bid
	for i := range snap.Bids {
		if snap.Bids[i].ID == bidID && snap.Bids[i].TenderID == snap.Tender.ID {
			winner = &snap.Bids[i]
			break
		}
	}
	if winner == nil {
		return AwardResult{}, NewError(NotFound, "bid does not belong to this tender")
	}
	if winner.Status != models.PendingBid {
		return AwardResult{}, NewError(InvalidState, fmt.Sprintf("bid is already resolved as %s", winner.Status))
	}

	tender := snap.Tender
	tender.Status = models.AwardedTender
	winningID := winner.ID
	tender.WinningBid = &winningID

	bids := make([]models.Bid, len(snap.Bids))
	copy(bids, snap.Bids)
	for i := range bids {
		if bids[i].ID == winningID {
			bids[i].Status = models.AcceptedBid
		} else if bids[i].Status == models.PendingBid {
			bids[i].Status = models.RejectedBid
		}
	}
	return AwardResult{Tender: tender, Bids: bids}, nil
}

// Modify применяет изменения описательных полей тендера.
// Разрешено только владельцу и только в статусах DRAFT и OPEN.
func Modify(tender models.Tender, p models.Principal, upd models.TenderUpdate) (models.Tender, error) {
	if !isOwner(tender, p) {
		return models.Tender{}, NewError(Forbidden, "only the owning city account may edit this tender")
	}
	if tender.Status != models.DraftTender && tender.Status != models.OpenTender {
		return models.Tender{}, NewError(InvalidState, fmt.Sprintf("cannot edit tender in status %s", tender.Status))
	}
	if upd.Budget != nil && *upd.Budget < 0 {
		return models.Tender{}, NewError(InvalidInput, "budget must be non-negative")
	}

	if upd.Title != nil {
		tender.Title = *upd.Title
	}
	if upd.Description != nil {
		tender.Description = *upd.Description
	}
	if upd.Category != nil {
		tender.Category = *upd.Category
	}
	if upd.Requirements != nil {
		tender.Requirements = *upd.Requirements
	}
	if upd.Budget != nil {
		tender.Budget = *upd.Budget
	}
	if upd.Location != nil {
		tender.Location = *upd.Location
	}
	return tender, nil
}

// SubmitBid проверяет допустимость заявки и строит новую заявку со статусом
// PENDING. Проверки идут строго по порядку: статус тендера, срок подачи,
// повторная заявка, сумма - срабатывает первая нарушенная.
func SubmitBid(snap Snapshot, p models.Principal, req models.BidRequest, now time.Time) (models.Bid, error) {
	if p.Role != models.RoleCompany {
		return models.Bid{}, NewError(Forbidden, "only company accounts may submit bids")
	}
	if snap.Tender.Status != models.OpenTender {
		return models.Bid{}, NewError(InvalidState, fmt.Sprintf("tender is not open for bidding, status %s", snap.Tender.Status))
	}
	if now.After(snap.Tender.SubmissionDeadline) {
		return models.Bid{}, NewError(DeadlinePassed, "submission deadline has passed")
	}
	for i := range snap.Bids {
		if snap.Bids[i].Bidder == p.ID {
			return models.Bid{}, NewError(DuplicateBid, "this company has already bid on this tender")
		}
	}
	if req.Amount < 0 {
		return models.Bid{}, NewError(InvalidInput, "bid amount must be non-negative")
	}

	return models.Bid{
		ID:            uuid.New().String(),
		TenderID:      snap.Tender.ID,
		Bidder:        p.ID,
		BidderName:    p.Organization,
		Amount:        req.Amount,
		DocumentRef:   req.DocumentRef,
		ProposalNotes: req.ProposalNotes,
		SubmittedAt:   now,
		Status:        models.PendingBid,
	}, nil
}

// ListBids возвращает заявки тендера с учётом роли вызывающего.
// Город-владелец видит все заявки, компания - только свою плюс сводку,
// аноним - только победителя уже завершённого тендера.
func ListBids(snap Snapshot, p models.Principal) (models.BidListing, error) {
	listing := models.BidListing{
		TotalBids:    len(snap.Bids),
		TenderStatus: snap.Tender.Status,
	}

	switch p.Role {
	case models.RoleCity:
		if snap.Tender.Owner != p.ID {
			return models.BidListing{}, NewError(Forbidden, "only the owning city account may view all bids")
		}
		listing.Bids = append(listing.Bids, snap.Bids...)
	case models.RoleCompany:
		for i := range snap.Bids {
			if snap.Bids[i].Bidder == p.ID {
				listing.Bids = append(listing.Bids, snap.Bids[i])
			}
		}
	default:
		if snap.Tender.Status != models.AwardedTender || snap.Tender.WinningBid == nil {
			return listing, nil
		}
		for i := range snap.Bids {
			if snap.Bids[i].ID == *snap.Tender.WinningBid {
				// Анониму раскрываются только компания-победитель и сумма.
				listing.Bids = append(listing.Bids, models.Bid{
					BidderName: snap.Bids[i].BidderName,
					Amount:     snap.Bids[i].Amount,
				})
				break
			}
		}
	}
	return listing, nil
}

// ListPublicTenders фильтрует тендеры для публичной выдачи. Чистая проекция:
// остаются только публичные тендеры, для анонимов скрываются requirements.
func ListPublicTenders(all []models.Tender, p models.Principal) []models.TenderView {
	views := make([]models.TenderView, 0, len(all))
	for i := range all {
		if !all[i].IsPublic {
			continue
		}
		views = append(views, TenderDetail(all[i], p))
	}
	return views
}

// TenderDetail строит проекцию одного тендера для вызывающего.
func TenderDetail(tender models.Tender, p models.Principal) models.TenderView {
	view := models.TenderView{
		ID:                 tender.ID,
		Title:              tender.Title,
		Description:        tender.Description,
		Category:           tender.Category,
		Budget:             tender.Budget,
		Location:           tender.Location,
		NoticeDate:         tender.NoticeDate,
		SubmissionDeadline: tender.SubmissionDeadline,
		Status:             tender.Status,
		WinningBid:         tender.WinningBid,
	}
	if p.Role != models.RolePublic {
		view.Requirements = tender.Requirements
	}
	return view
}

func isOwner(tender models.Tender, p models.Principal) bool {
	return p.Role == models.RoleCity && p.ID == tender.Owner
}
