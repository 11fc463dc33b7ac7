package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// SaveRefreshToken сохраняет новый refresh-токен в БД.
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const op = "storage.postgres.SaveRefreshToken"

	query := `
        INSERT INTO refresh_tokens(id, token_hash, user_id, created_at, expires_at, revoked, ip, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	_, err := s.db.Exec(ctx, query,
		token.ID,
		token.RefreshTokenHash,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
		token.Revoked,
		token.IP,
		token.UserAgent,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RotateRefreshToken атомарно отзывает активный refresh-токен и сохраняет
// его замену одной транзакцией: погашение без замены в БД не фиксируется.
// Единственный разрешённый переход состояния записи: revoked FALSE -> TRUE.
// Условие в WHERE закрывает гонку N одновременных погашений: строку получает
// ровно один вызов, остальные видят ErrNotFound. Неизвестный, отозванный и
// просроченный токены для вызывающего неразличимы. Замена наследует user_id
// погашенной записи.
func (s *Storage) RotateRefreshToken(ctx context.Context, oldHash string, replacement *models.RefreshToken, now time.Time) (*models.RefreshToken, error) {
	const op = "storage.postgres.RotateRefreshToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const claim = `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE AND expires_at > $2
		RETURNING id, token_hash, user_id, created_at, expires_at, revoked, ip, user_agent
	`

	var old models.RefreshToken
	err = tx.QueryRow(ctx, claim, oldHash, now).Scan(
		&old.ID,
		&old.RefreshTokenHash,
		&old.UserID,
		&old.CreatedAt,
		&old.ExpiresAt,
		&old.Revoked,
		&old.IP,
		&old.UserAgent,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	replacement.UserID = old.UserID

	const insert = `
		INSERT INTO refresh_tokens(id, token_hash, user_id, created_at, expires_at, revoked, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insert,
		replacement.ID,
		replacement.RefreshTokenHash,
		replacement.UserID,
		replacement.CreatedAt,
		replacement.ExpiresAt,
		replacement.Revoked,
		replacement.IP,
		replacement.UserAgent,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &old, nil
}

// DeleteExpiredRefreshTokens удаляет все просроченные refresh-токены.
func (s *Storage) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredRefreshTokens"

	query := `
        DELETE FROM refresh_tokens
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
