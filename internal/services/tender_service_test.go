package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/senyabanana/procurement-portal/internal/lifecycle"
	"github.com/senyabanana/procurement-portal/internal/models"
	"github.com/senyabanana/procurement-portal/internal/repository"

	"github.com/sirupsen/logrus"
)

// Фейковые репозитории держат состояние в памяти и умеют изображать
// конфликт версий заданное число раз.
type fakeTenderRepo struct {
	tenders   map[string]models.Tender
	bids      *fakeBidRepo
	conflicts int
}

func newFakeTenderRepo(bids *fakeBidRepo) *fakeTenderRepo {
	repo := &fakeTenderRepo{tenders: make(map[string]models.Tender), bids: bids}
	bids.tenders = repo
	return repo
}

func (f *fakeTenderRepo) GetPublicTenders(_ context.Context, limit, offset int, _ []string) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.IsPublic {
			result = append(result, tender)
		}
	}
	_ = limit
	_ = offset
	return result, nil
}

func (f *fakeTenderRepo) GetTenderByID(_ context.Context, tenderID string) (*models.Tender, error) {
	tender, ok := f.tenders[tenderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &tender, nil
}

func (f *fakeTenderRepo) GetUserTenders(_ context.Context, _, _ int, owner string) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.Owner == owner {
			result = append(result, tender)
		}
	}
	return result, nil
}

func (f *fakeTenderRepo) CreateTender(_ context.Context, tender models.Tender) error {
	f.tenders[tender.ID] = tender
	return nil
}

func (f *fakeTenderRepo) UpdateTender(_ context.Context, tender models.Tender) (*models.Tender, error) {
	if f.conflicts > 0 {
		f.conflicts--
		return nil, repository.ErrVersionConflict
	}
	current, ok := f.tenders[tender.ID]
	if !ok || current.Version != tender.Version {
		return nil, repository.ErrVersionConflict
	}
	tender.Version++
	f.tenders[tender.ID] = tender
	return &tender, nil
}

func (f *fakeTenderRepo) CommitAward(_ context.Context, tender models.Tender, bids []models.Bid) error {
	if f.conflicts > 0 {
		f.conflicts--
		return repository.ErrVersionConflict
	}
	current, ok := f.tenders[tender.ID]
	if !ok || current.Version != tender.Version {
		return repository.ErrVersionConflict
	}
	tender.Version++
	f.tenders[tender.ID] = tender
	for _, bid := range bids {
		f.bids.bids[bid.ID] = bid
	}
	return nil
}

func (f *fakeTenderRepo) CloseExpiredTenders(_ context.Context, now time.Time) (int64, error) {
	var closed int64
	for id, tender := range f.tenders {
		if tender.Status == models.OpenTender && tender.SubmissionDeadline.Before(now) {
			tender.Status = models.ClosedTender
			tender.Version++
			f.tenders[id] = tender
			closed++
		}
	}
	return closed, nil
}

type fakeBidRepo struct {
	bids    map[string]models.Bid
	tenders *fakeTenderRepo
	// beforeCreate выполняется между решением движка и коммитом заявки,
	// чтобы изображать конкурентную запись по тому же тендеру.
	beforeCreate func()
}

func newFakeBidRepo() *fakeBidRepo {
	return &fakeBidRepo{bids: make(map[string]models.Bid)}
}

func (f *fakeBidRepo) CreateBid(_ context.Context, bid models.Bid, tenderVersion int32) error {
	if f.beforeCreate != nil {
		hook := f.beforeCreate
		f.beforeCreate = nil
		hook()
	}
	for _, existing := range f.bids {
		if existing.TenderID == bid.TenderID && existing.Bidder == bid.Bidder {
			return repository.ErrDuplicateBid
		}
	}
	tender, ok := f.tenders.tenders[bid.TenderID]
	if !ok || tender.Status != models.OpenTender || tender.Version != tenderVersion {
		return repository.ErrVersionConflict
	}
	f.bids[bid.ID] = bid
	return nil
}

func (f *fakeBidRepo) GetBidsForTender(_ context.Context, tenderID string) ([]models.Bid, error) {
	var result []models.Bid
	for _, bid := range f.bids {
		if bid.TenderID == tenderID {
			result = append(result, bid)
		}
	}
	return result, nil
}

func (f *fakeBidRepo) GetBid(_ context.Context, tenderID, bidder string) (*models.Bid, error) {
	for _, bid := range f.bids {
		if bid.TenderID == tenderID && bid.Bidder == bidder {
			return &bid, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBidRepo) GetUserBids(_ context.Context, _, _ int, bidder string) ([]models.Bid, error) {
	var result []models.Bid
	for _, bid := range f.bids {
		if bid.Bidder == bidder {
			result = append(result, bid)
		}
	}
	return result, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var (
	city    = models.Principal{ID: "city-1", Role: models.RoleCity}
	company = models.Principal{ID: "company-a", Role: models.RoleCompany, Organization: "Alpha Build"}
)

func newTenderFixture(t *testing.T, repo *fakeTenderRepo, svc *TenderService, publish bool) models.Tender {
	t.Helper()
	tender, err := svc.CreateTender(context.Background(), models.TenderRequest{
		Title:              "Road resurfacing",
		Description:        "Resurfacing of Main street",
		Budget:             100000,
		SubmissionDeadline: time.Now().UTC().Add(72 * time.Hour),
		IsPublic:           true,
		Publish:            publish,
	}, city)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return *tender
}

func TestCreateAndPublishTender(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, false)
	if tender.Status != models.DraftTender {
		t.Fatalf("expected DRAFT, got %s", tender.Status)
	}

	published, err := svc.PublishTender(context.Background(), tender.ID, city)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published.Status != models.OpenTender {
		t.Errorf("expected OPEN, got %s", published.Status)
	}
	if published.Version != tender.Version+1 {
		t.Errorf("version must grow on commit, got %d", published.Version)
	}

	_, err = svc.PublishTender(context.Background(), tender.ID, company)
	if !lifecycle.IsKind(err, lifecycle.Forbidden) {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestPublishTenderRetriesOnConflict(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, false)
	repo.conflicts = 1

	published, err := svc.PublishTender(context.Background(), tender.ID, city)
	if err != nil {
		t.Fatalf("commit must succeed after re-reading the snapshot, got %v", err)
	}
	if published.Status != models.OpenTender {
		t.Errorf("expected OPEN, got %s", published.Status)
	}
}

func TestPublishTenderGivesUpAfterRepeatedConflicts(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, false)
	repo.conflicts = commitAttempts

	_, err := svc.PublishTender(context.Background(), tender.ID, city)
	var errResp *models.ErrorResponse
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if !asErrorResponse(err, &errResp) || errResp.StatusCode != 409 {
		t.Errorf("expected 409 conflict response, got %v", err)
	}
}

func TestAwardTender(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())
	bidSvc := NewBidService(bids, repo, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, true)

	bidA, err := bidSvc.SubmitBid(context.Background(), models.BidRequest{TenderID: tender.ID, Amount: 1000}, company)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	companyB := models.Principal{ID: "company-b", Role: models.RoleCompany, Organization: "Beta Roads"}
	bidB, err := bidSvc.SubmitBid(context.Background(), models.BidRequest{TenderID: tender.ID, Amount: 900}, companyB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	awarded, err := svc.AwardTender(context.Background(), tender.ID, bidB.ID, city)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awarded.Status != models.AwardedTender || awarded.WinningBid == nil || *awarded.WinningBid != bidB.ID {
		t.Fatalf("unexpected award result: %+v", awarded)
	}

	// Статусы заявок зафиксированы вместе с тендером.
	if bids.bids[bidB.ID].Status != models.AcceptedBid {
		t.Errorf("winner must be ACCEPTED, got %s", bids.bids[bidB.ID].Status)
	}
	if bids.bids[bidA.ID].Status != models.RejectedBid {
		t.Errorf("sibling must be REJECTED, got %s", bids.bids[bidA.ID].Status)
	}

	// Повторный award отклоняется и ничего не меняет.
	_, err = svc.AwardTender(context.Background(), tender.ID, bidA.ID, city)
	if !lifecycle.IsKind(err, lifecycle.InvalidState) {
		t.Errorf("expected InvalidState, got %v", err)
	}
	if bids.bids[bidA.ID].Status != models.RejectedBid {
		t.Error("rejected award must not mutate bid statuses")
	}
}

func TestGetTenderVisibility(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, true)
	hidden := tender
	hidden.ID = "t-hidden"
	hidden.IsPublic = false
	repo.tenders[hidden.ID] = hidden

	if _, err := svc.GetTender(context.Background(), tender.ID, models.Anonymous()); err != nil {
		t.Errorf("public tender must be visible anonymously, got %v", err)
	}

	_, err := svc.GetTender(context.Background(), hidden.ID, models.Anonymous())
	if !lifecycle.IsKind(err, lifecycle.NotFound) {
		t.Errorf("hidden tender must look like NotFound, got %v", err)
	}

	if _, err = svc.GetTender(context.Background(), hidden.ID, city); err != nil {
		t.Errorf("owner must see the hidden tender, got %v", err)
	}

	view, err := svc.GetTender(context.Background(), tender.ID, models.Anonymous())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Requirements != "" {
		t.Error("requirements must be projected out for anonymous callers")
	}
}

func TestCloseExpired(t *testing.T) {
	bids := newFakeBidRepo()
	repo := newFakeTenderRepo(bids)
	svc := NewTenderService(repo, bids, nil, nil, quietLogger())

	tender := newTenderFixture(t, repo, svc, true)
	expired := tender
	expired.ID = "t-expired"
	expired.SubmissionDeadline = time.Now().UTC().Add(-time.Hour)
	repo.tenders[expired.ID] = expired

	if err := svc.CloseExpired(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.tenders[expired.ID].Status != models.ClosedTender {
		t.Errorf("expired tender must be CLOSED, got %s", repo.tenders[expired.ID].Status)
	}
	if repo.tenders[tender.ID].Status != models.OpenTender {
		t.Errorf("tender before the deadline must stay OPEN, got %s", repo.tenders[tender.ID].Status)
	}
}

func asErrorResponse(err error, target **models.ErrorResponse) bool {
	resp, ok := err.(*models.ErrorResponse)
	if ok {
		*target = resp
	}
	return ok
}
