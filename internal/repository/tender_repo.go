package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// ErrVersionConflict возвращается, когда условный коммит не прошёл проверку
// версии: тендер был изменён между чтением снимка и записью.
var ErrVersionConflict = errors.New("tender was modified concurrently")

// ErrNotFound возвращается, когда запрошенной сущности нет в хранилище.
var ErrNotFound = errors.New("entity not found")

const tenderColumns = `id, owner_id, title, description, category, requirements, budget, location,
	       notice_date, submission_deadline, is_public, status, winning_bid, version`

// TenderRepository - интерфейс для работы с тендерами.
type TenderRepository interface {
	GetPublicTenders(ctx context.Context, limit, offset int, categories []string) ([]models.Tender, error)
	GetTenderByID(ctx context.Context, tenderID string) (*models.Tender, error)
	GetUserTenders(ctx context.Context, limit, offset int, owner string) ([]models.Tender, error)
	CreateTender(ctx context.Context, tender models.Tender) error
	UpdateTender(ctx context.Context, tender models.Tender) (*models.Tender, error)
	CommitAward(ctx context.Context, tender models.Tender, bids []models.Bid) error
	CloseExpiredTenders(ctx context.Context, now time.Time) (int64, error)
}

// PostgresTenderRepository - реализация TenderRepository для базы данных.
type PostgresTenderRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresTenderRepository создаёт новый экземпляр PostgresTenderRepository.
func NewPostgresTenderRepository(db *pgxpool.Pool) *PostgresTenderRepository {
	return &PostgresTenderRepository{DB: db}
}

// GetPublicTenders возвращает список публичных тендеров.
func (r *PostgresTenderRepository) GetPublicTenders(ctx context.Context, limit, offset int, categories []string) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE is_public = TRUE`
	var args []interface{}
	argIndex := 1

	if len(categories) > 0 {
		query += fmt.Sprintf(" AND category = ANY($%d)", argIndex)
		args = append(args, pq.Array(categories))
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY notice_date DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTenders(rows)
}

// GetTenderByID возвращает тендер по его идентификатору.
func (r *PostgresTenderRepository) GetTenderByID(ctx context.Context, tenderID string) (*models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE id = $1`

	tender, err := scanTender(r.DB.QueryRow(ctx, query, tenderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return tender, nil
}

// GetUserTenders возвращает тендеры, созданные данным городским аккаунтом.
func (r *PostgresTenderRepository) GetUserTenders(ctx context.Context, limit, offset int, owner string) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + ` FROM tender WHERE owner_id = $1
	          ORDER BY notice_date DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, owner, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTenders(rows)
}

// CreateTender сохраняет новый тендер.
func (r *PostgresTenderRepository) CreateTender(ctx context.Context, tender models.Tender) error {
	insertQuery := `INSERT INTO tender (` + tenderColumns + `)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		tender.ID,
		tender.Owner,
		tender.Title,
		tender.Description,
		tender.Category,
		tender.Requirements,
		tender.Budget,
		tender.Location,
		tender.NoticeDate,
		tender.SubmissionDeadline,
		tender.IsPublic,
		tender.Status,
		tender.WinningBid,
		tender.Version)
	if err != nil {
		return fmt.Errorf("failed to insert tender: %w", err)
	}
	return nil
}

// UpdateTender записывает новое состояние тендера при условии, что версия
// в базе совпадает с прочитанной. Несовпадение означает конкурентное
// изменение и возвращается как ErrVersionConflict.
func (r *PostgresTenderRepository) UpdateTender(ctx context.Context, tender models.Tender) (*models.Tender, error) {
	updateQuery := `UPDATE tender
	                SET title = $1, description = $2, category = $3, requirements = $4, budget = $5,
	                    location = $6, is_public = $7, status = $8, version = version + 1
	                WHERE id = $9 AND version = $10`
	tag, err := r.DB.Exec(
		ctx,
		updateQuery,
		tender.Title,
		tender.Description,
		tender.Category,
		tender.Requirements,
		tender.Budget,
		tender.Location,
		tender.IsPublic,
		tender.Status,
		tender.ID,
		tender.Version)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrVersionConflict
	}

	tender.Version++
	return &tender, nil
}

// CommitAward атомарно фиксирует результат выбора победителя: новый статус
// тендера, ссылку на победившую заявку и окончательные статусы всех заявок.
// Либо применяется всё, либо ничего.
func (r *PostgresTenderRepository) CommitAward(ctx context.Context, tender models.Tender, bids []models.Bid) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin award transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updateQuery := `UPDATE tender SET status = $1, winning_bid = $2, version = version + 1
	                WHERE id = $3 AND version = $4`
	tag, err := tx.Exec(ctx, updateQuery, tender.Status, tender.WinningBid, tender.ID, tender.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}

	for _, bid := range bids {
		if _, err = tx.Exec(ctx, `UPDATE bid SET status = $1 WHERE id = $2`, bid.Status, bid.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CloseExpiredTenders закрывает открытые тендеры с истёкшим сроком подачи.
// Вызывается фоновой задачей шлюза, движок сам срок не отслеживает.
func (r *PostgresTenderRepository) CloseExpiredTenders(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE tender SET status = $1, version = version + 1
	          WHERE status = $2 AND submission_deadline < $3`
	tag, err := r.DB.Exec(ctx, query, models.ClosedTender, models.OpenTender, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanTender(row pgx.Row) (*models.Tender, error) {
	var tender models.Tender
	err := row.Scan(
		&tender.ID,
		&tender.Owner,
		&tender.Title,
		&tender.Description,
		&tender.Category,
		&tender.Requirements,
		&tender.Budget,
		&tender.Location,
		&tender.NoticeDate,
		&tender.SubmissionDeadline,
		&tender.IsPublic,
		&tender.Status,
		&tender.WinningBid,
		&tender.Version,
	)
	if err != nil {
		return nil, err
	}
	return &tender, nil
}

func scanTenders(rows pgx.Rows) ([]models.Tender, error) {
	var tenders []models.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, *tender)
	}
	return tenders, rows.Err()
}
