package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// SavePasswordResetToken сохраняет новый токен сброса пароля.
func (s *Storage) SavePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	const op = "storage.postgres.SavePasswordResetToken"

	query := `
		INSERT INTO password_reset_tokens(id, token_hash, user_id, expires_at, used)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		token.ID,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.Used,
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

// RedeemPasswordResetToken гасит токен и устанавливает владельцу новый хэш
// пароля одной транзакцией. Погашение — условный UPDATE (used = TRUE только
// если used = FALSE и expires_at > now), так что при конкурентных попытках
// токен достаётся ровно одному вызову. Неизвестный, использованный и
// просроченный токены одинаково дают ErrNotFound.
func (s *Storage) RedeemPasswordResetToken(ctx context.Context, hash string, passwordHash string, now time.Time) (uuid.UUID, error) {
	const op = "storage.postgres.RedeemPasswordResetToken"

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const claim = `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE token_hash = $1 AND used = FALSE AND expires_at > $2
		RETURNING user_id
	`

	var userID uuid.UUID
	err = tx.QueryRow(ctx, claim, hash, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	const setPassword = `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3
	`

	cmdTag, err := tx.Exec(ctx, setPassword, passwordHash, now, userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return uuid.Nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

// DeleteExpiredResetTokens удаляет все просроченные токены сброса.
func (s *Storage) DeleteExpiredResetTokens(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredResetTokens"

	query := `
        DELETE FROM password_reset_tokens
        WHERE expires_at <= $1
    `

	_, err := s.db.Exec(ctx, query, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
