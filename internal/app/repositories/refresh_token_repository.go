package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SF-ND-NEW/miniapp-backend/internal/db"
	"github.com/SF-ND-NEW/miniapp-backend/internal/pkg/logger"
)

// RefreshTokenRepository handles refresh token grant storage. Only the jti
// and its expiry are stored; the signed token never touches the database.
type RefreshTokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(pool *pgxpool.Pool) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Replace drops every grant for the openid and stores the new one, so each
// user holds at most one live refresh token. Runs in one transaction.
func (r *RefreshTokenRepository) Replace(ctx context.Context, openid, tokenID string, expiresAt time.Time) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE openid = $1`, openid); err != nil {
			return fmt.Errorf("error clearing refresh tokens: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO refresh_tokens (openid, token_id, expires_at)
			VALUES ($1, $2, $3)`,
			openid, tokenID, expiresAt); err != nil {
			return fmt.Errorf("error storing refresh token: %w", err)
		}

		return nil
	})
}

// Valid reports whether the (openid, jti) grant exists and has not expired
func (r *RefreshTokenRepository) Valid(ctx context.Context, openid, tokenID string) (bool, error) {
	sql, args, err := r.sb.Select("1").
		From("refresh_tokens").
		Where(squirrel.Eq{"openid": openid, "token_id": tokenID}).
		Where(squirrel.Gt{"expires_at": time.Now()}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("failed to build refresh token query: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking refresh token: %w", err)
	}

	return exists, nil
}

// DeleteExpired removes grants past their expiry. Called opportunistically.
func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired refresh tokens: %w", err)
	}

	if n := cmdTag.RowsAffected(); n > 0 {
		logger.Debug().Int64("count", n).Msg("Expired refresh tokens removed")
	}

	return cmdTag.RowsAffected(), nil
}
