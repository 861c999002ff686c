package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateBid возвращается, когда вставка заявки нарушила уникальность
// пары (tender_id, bidder_id). Подстраховка инварианта на границе хранилища:
// два конкурентных запроса не могут оба пройти проверку в движке.
var ErrDuplicateBid = errors.New("bid for this tender and bidder already exists")

const bidColumns = `id, tender_id, bidder_id, bidder_name, amount, document_ref, proposal_notes, submitted_at, status`

// BidRepository - интерфейс для работы с заявками.
type BidRepository interface {
	CreateBid(ctx context.Context, bid models.Bid, tenderVersion int32) error
	GetBidsForTender(ctx context.Context, tenderID string) ([]models.Bid, error)
	GetBid(ctx context.Context, tenderID, bidder string) (*models.Bid, error)
	GetUserBids(ctx context.Context, limit, offset int, bidder string) ([]models.Bid, error)
}

// PostgresBidRepository - реализация BidRepository для базы данных.
type PostgresBidRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresBidRepository создает новый экземпляр PostgresBidRepository.
func NewPostgresBidRepository(db *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{DB: db}
}

// CreateBid сохраняет новую заявку при условии, что тендер всё ещё открыт
// и имеет версию, прочитанную вместе со снимком. Если тендер успели закрыть
// или наградить, вставка не проходит и возвращается ErrVersionConflict -
// сервисный слой перечитает снимок и заново прогонит решение движка.
func (r *PostgresBidRepository) CreateBid(ctx context.Context, bid models.Bid, tenderVersion int32) error {
	insertQuery := `INSERT INTO bid (` + bidColumns + `)
	                SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
	                WHERE EXISTS (
	                    SELECT 1 FROM tender WHERE id = $2 AND status = $10 AND version = $11
	                )`
	tag, err := r.DB.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.TenderID,
		bid.Bidder,
		bid.BidderName,
		bid.Amount,
		bid.DocumentRef,
		bid.ProposalNotes,
		bid.SubmittedAt,
		bid.Status,
		models.OpenTender,
		tenderVersion)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateBid
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// GetBidsForTender возвращает все заявки по тендеру.
func (r *PostgresBidRepository) GetBidsForTender(ctx context.Context, tenderID string) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bid WHERE tender_id = $1 ORDER BY submitted_at`

	rows, err := r.DB.Query(ctx, query, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

// GetBid возвращает заявку по ключу (tender_id, bidder_id).
func (r *PostgresBidRepository) GetBid(ctx context.Context, tenderID, bidder string) (*models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bid WHERE tender_id = $1 AND bidder_id = $2`

	bid, err := scanBid(r.DB.QueryRow(ctx, query, tenderID, bidder))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// GetUserBids возвращает заявки, поданные данной компанией.
func (r *PostgresBidRepository) GetUserBids(ctx context.Context, limit, offset int, bidder string) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bid WHERE bidder_id = $1
	          ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, bidder, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBids(rows)
}

func scanBid(row pgx.Row) (*models.Bid, error) {
	var bid models.Bid
	err := row.Scan(
		&bid.ID,
		&bid.TenderID,
		&bid.Bidder,
		&bid.BidderName,
		&bid.Amount,
		&bid.DocumentRef,
		&bid.ProposalNotes,
		&bid.SubmittedAt,
		&bid.Status,
	)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func scanBids(rows pgx.Rows) ([]models.Bid, error) {
	var bids []models.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	return bids, rows.Err()
}
