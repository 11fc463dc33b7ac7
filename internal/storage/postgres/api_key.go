package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Lukianos76/project-babel/internal/models"
	"github.com/Lukianos76/project-babel/internal/storage"
)

// SaveAPIKey сохраняет новый API-ключ.
func (s *Storage) SaveAPIKey(ctx context.Context, key *models.APIKey) error {
	const op = "storage.postgres.SaveAPIKey"

	query := `
		INSERT INTO api_keys(id, token, user_id, created_at, revoked)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.Exec(ctx, query,
		key.ID,
		key.Token,
		key.UserID,
		key.CreatedAt,
		key.Revoked,
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

// APIKeyByToken находит API-ключ по значению токена.
func (s *Storage) APIKeyByToken(ctx context.Context, token string) (*models.APIKey, error) {
	const op = "storage.postgres.APIKeyByToken"

	query := `
		SELECT id, token, user_id, created_at, revoked
		FROM api_keys
		WHERE token = $1
	`

	var key models.APIKey
	err := s.db.QueryRow(ctx, query, token).Scan(
		&key.ID,
		&key.Token,
		&key.UserID,
		&key.CreatedAt,
		&key.Revoked,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &key, nil
}

// RevokeAPIKey помечает ключ отозванным. Флаг односторонний, поэтому
// повторный отзыв — no-op без ошибки; ErrNotFound только для неизвестного ID.
func (s *Storage) RevokeAPIKey(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.RevokeAPIKey"

	query := `
		UPDATE api_keys
		SET revoked = TRUE
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListAPIKeys возвращает все API-ключи в порядке создания.
func (s *Storage) ListAPIKeys(ctx context.Context) ([]models.APIKey, error) {
	const op = "storage.postgres.ListAPIKeys"

	query := `
		SELECT id, token, user_id, created_at, revoked
		FROM api_keys
		ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var key models.APIKey
		if err := rows.Scan(&key.ID, &key.Token, &key.UserID, &key.CreatedAt, &key.Revoked); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		keys = append(keys, key)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return keys, nil
}
