package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/procurement-portal/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateUser возвращается при попытке зарегистрировать занятое имя.
var ErrDuplicateUser = errors.New("username already taken")

// UserRepository - интерфейс для работы с учётными записями.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// PostgresUserRepository - реализация UserRepository для базы данных.
type PostgresUserRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresUserRepository создает новый экземпляр PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// CreateUser сохраняет новую учётную запись.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, user models.User) error {
	insertQuery := `INSERT INTO portal_user (id, username, password_hash, role, organization)
	                VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.Exec(ctx, insertQuery, user.ID, user.Username, user.PasswordHash, user.Role, user.Organization)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateUser
		}
		return err
	}
	return nil
}

// GetUserByUsername возвращает учётную запись по имени пользователя.
func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, role, organization FROM portal_user WHERE username = $1`

	var user models.User
	err := r.DB.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Organization,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
