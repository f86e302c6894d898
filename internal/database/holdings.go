package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"paper-trading-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanHolding(row scanner) (*models.Holding, error) {
	var holding models.Holding
	var amountStr string
	err := row.Scan(&holding.Id, &holding.UserId, &holding.Coin, &amountStr,
		&holding.Version, &holding.UpdatedAt)
	if err != nil {
		return nil, err
	}

	holding.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return &holding, nil
}

// GetHolding returns the holding for user/coin, or nil when the user has
// never bought the coin (or has fully liquidated it).
func (s *Service) GetHolding(ctx context.Context, userId, coin string) (*models.Holding, error) {
	zap.L().Debug("Getting holding", zap.String("user_id", userId), zap.String("coin", coin))

	holding, err := scanHolding(s.db.QueryRowContext(ctx, queryGetHolding, userId, coin))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("Failed to get holding", zap.String("user_id", userId), zap.String("coin", coin), zap.Error(err))
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}

	return holding, nil
}

// GetUserHoldings returns all holdings for a user, ordered by coin
func (s *Service) GetUserHoldings(ctx context.Context, userId string) ([]models.Holding, error) {
	zap.L().Debug("Getting all holdings", zap.String("user_id", userId))

	rows, err := s.db.QueryContext(ctx, queryGetUserHoldings, userId)
	if err != nil {
		zap.L().Error("Failed to get holdings", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var holdings []models.Holding
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}

		holdings = append(holdings, *holding)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during holding row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating holding rows: %w", err)
	}

	zap.L().Debug("Retrieved holdings", zap.String("user_id", userId), zap.Int("count", len(holdings)))
	return holdings, nil
}
