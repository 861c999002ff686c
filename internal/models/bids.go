package models

import "time"

type BidStatus string // Статус заявки

const (
	PendingBid  BidStatus = "PENDING"  // Заявка подана и ждёт решения
	AcceptedBid BidStatus = "ACCEPTED" // Заявка выбрана победителем
	RejectedBid BidStatus = "REJECTED" // Заявка отклонена при выборе победителя
)

// Bid представляет модель заявки компании на тендер.
type Bid struct {
	ID            string    `json:"id"`
	TenderID      string    `json:"tenderId"`
	Bidder        string    `json:"-"`
	BidderName    string    `json:"bidderName"`
	Amount        float64   `json:"amount"`
	DocumentRef   string    `json:"documentRef,omitempty"`
	ProposalNotes string    `json:"proposalNotes,omitempty"`
	SubmittedAt   time.Time `json:"submittedAt"`
	Status        BidStatus `json:"status"`
}

// BidRequest представляет структуру запроса для подачи заявки.
type BidRequest struct {
	TenderID      string  `json:"tenderId"`
	Amount        float64 `json:"amount"`
	DocumentRef   string  `json:"documentRef"`
	ProposalNotes string  `json:"proposalNotes"`
}

// BidListing - результат просмотра заявок по тендеру с учётом роли вызывающего.
// Город видит все заявки, компания - только свою плюс сводку,
// аноним - только победителя уже завершённого тендера.
type BidListing struct {
	Bids         []Bid        `json:"bids"`
	TotalBids    int          `json:"totalBids"`
	TenderStatus TenderStatus `json:"tenderStatus"`
}
