package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sepehrad/unienroll/internal/app/models"
)

// TokenStore is the persistence surface the session policy needs.
type TokenStore interface {
	Insert(ctx context.Context, token *models.SessionToken) error
	// ListByUser returns the user's tokens of one type, oldest first.
	ListByUser(ctx context.Context, userID int64, tokenType models.TokenType) ([]*models.SessionToken, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	GetByTokenID(ctx context.Context, tokenID string, tokenType models.TokenType) (*models.SessionToken, error)
	IsLive(ctx context.Context, tokenID string, tokenType models.TokenType) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionService bounds the number of live tokens per user by role
// (STUDENT 2, PROFESSOR 3, ADMIN 5). The bound applies per token type,
// so a login, which records one access and one refresh row, consumes a
// single session slot. Issuing a token beyond the bound hard-deletes
// the oldest rows of that type so at most the role's maximum remain,
// newest included. The insert-then-trim sequence for one user is
// serialized with a per-user mutex, keeping the bound true under
// concurrent logins.
type SessionService struct {
	store  TokenStore
	logger zerolog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewSessionService creates a new SessionService
func NewSessionService(store TokenStore, logger zerolog.Logger) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// userLock returns the mutex serializing token admission for one user.
func (s *SessionService) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

// IssueToken persists a new token row for the user and applies the
// admission policy, evicting the oldest rows over the role bound.
func (s *SessionService) IssueToken(ctx context.Context, user *models.User, tokenType models.TokenType, tokenID string, expiresAt time.Time) (*models.SessionToken, error) {
	lock := s.userLock(user.ID)
	lock.Lock()
	defer lock.Unlock()

	token := &models.SessionToken{
		TokenID:   tokenID,
		UserID:    user.ID,
		Type:      tokenType,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	if err := s.store.Insert(ctx, token); err != nil {
		return nil, fmt.Errorf("error persisting session token: %w", err)
	}

	if err := s.applyAdmission(ctx, user, tokenType); err != nil {
		return nil, err
	}

	return token, nil
}

// applyAdmission trims the user's token rows of one type to the role
// bound. The caller holds the user lock.
func (s *SessionService) applyAdmission(ctx context.Context, user *models.User, tokenType models.TokenType) error {
	tokens, err := s.store.ListByUser(ctx, user.ID, tokenType)
	if err != nil {
		return fmt.Errorf("error listing session tokens: %w", err)
	}

	max := user.RoleType.MaxSessions()
	if len(tokens) <= max {
		return nil
	}

	toEvict := len(tokens) - max
	ids := make([]int64, 0, toEvict)
	for _, t := range tokens[:toEvict] {
		ids = append(ids, t.ID)
	}

	evicted, err := s.store.DeleteByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("error evicting session tokens: %w", err)
	}

	s.logger.Info().
		Int64("userId", user.ID).
		Str("role", string(user.RoleType)).
		Str("tokenType", string(tokenType)).
		Int64("evicted", evicted).
		Msg("Evicted oldest session tokens over role bound")

	return nil
}

// RevokeAll deletes every token of the user (logout)
func (s *SessionService) RevokeAll(ctx context.Context, userID int64) error {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error revoking session tokens: %w", err)
	}

	return nil
}

// Revoke deletes a single token row by its identifier, used when a
// refresh token is rotated.
func (s *SessionService) Revoke(ctx context.Context, token *models.SessionToken) error {
	lock := s.userLock(token.UserID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.DeleteByIDs(ctx, []int64{token.ID}); err != nil {
		return fmt.Errorf("error revoking session token: %w", err)
	}

	return nil
}

// IsLive reports whether a presented token identifier is still admitted,
// i.e. has neither been evicted nor revoked nor expired.
func (s *SessionService) IsLive(ctx context.Context, tokenID string, tokenType models.TokenType) (bool, error) {
	return s.store.IsLive(ctx, tokenID, tokenType)
}

// Lookup resolves a token row by identifier and type.
func (s *SessionService) Lookup(ctx context.Context, tokenID string, tokenType models.TokenType) (*models.SessionToken, error) {
	return s.store.GetByTokenID(ctx, tokenID, tokenType)
}

// CleanupExpired removes rows whose expiry has passed.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpiredBefore(ctx, time.Now())
}
