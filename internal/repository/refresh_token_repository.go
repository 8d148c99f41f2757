package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"freelance/internal/database"
	"freelance/internal/models"
)

type RefreshTokenRepository struct {
	pool database.Pool
}

func NewRefreshTokenRepository(pool database.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{pool: pool}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	const query = `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt).
			Scan(&token.ID, &token.CreatedAt)
		return classifyWrite(err)
	})
}

func (r *RefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (models.RefreshToken, error) {
	const query = `
		SELECT id, user_id, token_hash, created_at, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1
	`

	var token models.RefreshToken
	if err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.CreatedAt,
		&token.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.RefreshToken{}, ErrRefreshTokenNotFound
		}
		return models.RefreshToken{}, err
	}
	return token, nil
}

// DeleteByHash locks and removes the row for tokenHash. Concurrent logouts
// with the same token serialize on the row lock; only one of them succeeds.
func (r *RefreshTokenRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, tokenHash).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrRefreshTokenNotFound
			}
			return err
		}

		cmd, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrRefreshTokenNotFound
		}
		return nil
	})
}

func (r *RefreshTokenRepository) DeleteByID(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	var deleted int64
	err := database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
		if err != nil {
			return err
		}
		deleted = cmd.RowsAffected()
		return nil
	})
	return deleted, err
}

// DeleteExpired purges rows whose expires_at is at or before now.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
