package models

import "time"

type TenderStatus string // Статус тендера

const (
	DraftTender   TenderStatus = "DRAFT"   // Тендер создан как черновик
	OpenTender    TenderStatus = "OPEN"    // Тендер открыт для подачи заявок
	ClosedTender  TenderStatus = "CLOSED"  // Приём заявок закрыт
	AwardedTender TenderStatus = "AWARDED" // Победитель выбран, тендер завершён
)

// Tender представляет модель тендера.
type Tender struct {
	ID                 string       `json:"id"`
	Owner              string       `json:"-"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	Requirements       string       `json:"requirements,omitempty"`
	Budget             float64      `json:"budget"`
	Location           string       `json:"location"`
	NoticeDate         time.Time    `json:"noticeDate"`
	SubmissionDeadline time.Time    `json:"submissionDeadline"`
	IsPublic           bool         `json:"isPublic"`
	Status             TenderStatus `json:"status"`
	WinningBid         *string      `json:"winningBid,omitempty"`
	Version            int32        `json:"version"`
}

// TenderRequest представляет структуру запроса для создания тендера.
type TenderRequest struct {
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Requirements       string    `json:"requirements"`
	Budget             float64   `json:"budget"`
	Location           string    `json:"location"`
	SubmissionDeadline time.Time `json:"submissionDeadline"`
	IsPublic           bool      `json:"isPublic"`
	Publish            bool      `json:"publish"` // true - тендер сразу OPEN, иначе черновик
}

// TenderUpdate описывает изменяемые описательные поля тендера.
// nil означает "поле не менять".
type TenderUpdate struct {
	Title        *string  `json:"title,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Category     *string  `json:"category,omitempty"`
	Requirements *string  `json:"requirements,omitempty"`
	Budget       *float64 `json:"budget,omitempty"`
	Location     *string  `json:"location,omitempty"`
}

// TenderView - проекция тендера для выдачи наружу.
// Для анонимных вызовов requirements не раскрывается.
type TenderView struct {
	ID                 string       `json:"id"`
	Title              string       `json:"title"`
	Description        string       `json:"description"`
	Category           string       `json:"category"`
	Requirements       string       `json:"requirements,omitempty"`
	Budget             float64      `json:"budget"`
	Location           string       `json:"location"`
	NoticeDate         time.Time    `json:"noticeDate"`
	SubmissionDeadline time.Time    `json:"submissionDeadline"`
	Status             TenderStatus `json:"status"`
	WinningBid         *string      `json:"winningBid,omitempty"`
}
