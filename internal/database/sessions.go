package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"go.uber.org/zap"
)

// CreateSession stores a new session token for a user
func (s *Service) CreateSession(ctx context.Context, params store.CreateSessionParams) (*models.Session, error) {
	zap.L().Debug("Creating session", zap.String("user_id", params.UserId))

	var session models.Session
	err := s.db.QueryRowContext(ctx, queryInsertSession, params.Token, params.UserId, params.ExpiresAt).
		Scan(&session.Token, &session.UserId, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		zap.L().Error("Failed to insert session", zap.String("user_id", params.UserId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert session: %w", err)
	}

	return &session, nil
}

// GetUserBySession resolves a session token to its user. Expired tokens
// resolve to ErrSessionNotFound even before cleanup removes them.
func (s *Service) GetUserBySession(ctx context.Context, token string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserBySession, token, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSessionNotFound
	}
	if err != nil {
		zap.L().Error("Failed to resolve session", zap.Error(err))
		return nil, fmt.Errorf("unable to resolve session: %w", err)
	}

	return user, nil
}

// DeleteSession removes a session token (logout)
func (s *Service) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, queryDeleteSession, token)
	if err != nil {
		zap.L().Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("unable to delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes all sessions past their expiry and returns
// how many rows were purged.
func (s *Service) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryDeleteExpiredSessions, time.Now())
	if err != nil {
		return 0, fmt.Errorf("unable to delete expired sessions: %w", err)
	}

	purged, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("unable to get rows affected: %w", err)
	}

	if purged > 0 {
		zap.L().Info("Purged expired sessions", zap.Int64("count", purged))
	}
	return purged, nil
}
