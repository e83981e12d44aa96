package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sepehrad/unienroll/internal/app/models"
	"github.com/sepehrad/unienroll/internal/db"
	"github.com/sepehrad/unienroll/internal/pkg/apperrors"
	"github.com/sepehrad/unienroll/internal/pkg/logger"
)

// TokenRepository handles session token database operations. Rows are
// hard-deleted on eviction and revocation; a missing row is the only
// "revoked" state.
type TokenRepository struct {
	db *db.PostgresDB
	q  Querier
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(database *db.PostgresDB) *TokenRepository {
	return &TokenRepository{
		db: database,
		q:  database.Pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert persists a new session token row
func (r *TokenRepository) Insert(ctx context.Context, token *models.SessionToken) error {
	sql, args, err := r.sb.Insert("session_tokens").
		Columns("token_id", "user_id", "token_type", "expires_at", "created_at").
		Values(token.TokenID, token.UserID, token.Type, token.ExpiresAt, token.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert token query: %w", err)
	}

	if err := r.q.QueryRow(ctx, sql, args...).Scan(&token.ID); err != nil {
		return fmt.Errorf("error inserting session token: %w", err)
	}

	return nil
}

// ListByUser retrieves a user's tokens of one type, oldest first
func (r *TokenRepository) ListByUser(ctx context.Context, userID int64, tokenType models.TokenType) ([]*models.SessionToken, error) {
	sql, args, err := r.sb.Select("id", "token_id", "user_id", "token_type", "expires_at", "created_at").
		From("session_tokens").
		Where(squirrel.Eq{"user_id": userID, "token_type": tokenType}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list tokens query: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing session tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*models.SessionToken
	for rows.Next() {
		var t models.SessionToken
		if err := rows.Scan(&t.ID, &t.TokenID, &t.UserID, &t.Type, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

// DeleteByIDs hard-deletes the given token rows
func (r *TokenRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	sql, args, err := r.sb.Delete("session_tokens").
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build delete tokens query: %w", err)
	}

	cmdTag, err := r.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error deleting session tokens: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// DeleteByUser hard-deletes every token of a user (logout)
func (r *TokenRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	cmdTag, err := r.q.Exec(ctx,
		`DELETE FROM session_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("error deleting user session tokens: %w", err)
	}

	return cmdTag.RowsAffected(), nil
}

// GetByTokenID retrieves a token row by its random identifier and type
func (r *TokenRepository) GetByTokenID(ctx context.Context, tokenID string, tokenType models.TokenType) (*models.SessionToken, error) {
	var t models.SessionToken
	err := r.q.QueryRow(ctx, `
		SELECT id, token_id, user_id, token_type, expires_at, created_at
		FROM session_tokens
		WHERE token_id = $1 AND token_type = $2`,
		tokenID, tokenType).
		Scan(&t.ID, &t.TokenID, &t.UserID, &t.Type, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving session token: %w", err)
	}

	return &t, nil
}

// IsLive reports whether a presented token identifier still has a row,
// i.e. has not been evicted or revoked, and has not expired.
func (r *TokenRepository) IsLive(ctx context.Context, tokenID string, tokenType models.TokenType) (bool, error) {
	var live bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM session_tokens
			WHERE token_id = $1 AND token_type = $2 AND expires_at > $3)`,
		tokenID, tokenType, time.Now()).Scan(&live)
	if err != nil {
		return false, fmt.Errorf("error checking token liveness: %w", err)
	}

	return live, nil
}

// DeleteExpiredBefore removes token rows that expired before the cutoff
func (r *TokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.q.Exec(ctx,
		`DELETE FROM session_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error cleaning up expired tokens: %w", err)
	}

	deleted := cmdTag.RowsAffected()
	if deleted > 0 {
		logger.Info().Int64("deletedCount", deleted).Msg("Cleaned up expired session tokens")
	}

	return deleted, nil
}
