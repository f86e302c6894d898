package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExecuteTrade atomically applies the balance delta, the holding delta and the
// trade insertion as one unit: either all three take effect or none do.
//
// The read-modify-write sequence on a user's rows is linearized by optimistic
// version checks on both the users and holdings rows. A concurrent trade for
// the same user fails the version check and surfaces ErrConcurrentModification
// so the caller can retry against fresh state. Trades for different users
// never contend.
func (s *Service) ExecuteTrade(ctx context.Context, params store.TradeParams) (*models.Trade, error) {
	zap.L().Info("Executing trade",
		zap.String("user_id", params.UserId),
		zap.String("coin", params.Coin),
		zap.String("side", string(params.Side)),
		zap.String("quantity", params.Quantity.String()),
		zap.String("usd_value", params.UsdValue.String()))

	if params.Side != store.SideBuy && params.Side != store.SideSell {
		return nil, fmt.Errorf("invalid trade side: %q", params.Side)
	}

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Read current balance and the holding for this coin. All validation
	// happens inside the transaction so nothing is mutated on failure.
	var balanceStr string
	var userVersion int64
	err = tx.QueryRowContext(ctx, queryGetUserForTrade, params.UserId).Scan(&balanceStr, &userVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, params.UserId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}

	var holdingId string
	var holdingAmount decimal.Decimal
	var holdingVersion int64
	holdingExists := true

	var holdingAmountStr string
	err = tx.QueryRowContext(ctx, queryGetHoldingForTrade, params.UserId, params.Coin).
		Scan(&holdingId, &holdingAmountStr, &holdingVersion)
	if errors.Is(err, sql.ErrNoRows) {
		holdingExists = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to read holding: %w", err)
	} else {
		holdingAmount, err = decimal.NewFromString(holdingAmountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse holding amount '%s': %w", holdingAmountStr, err)
		}
	}

	var newBalance decimal.Decimal
	switch params.Side {
	case store.SideBuy:
		if balance.LessThan(params.UsdValue) {
			return nil, store.ErrInsufficientBalance
		}
		newBalance = balance.Sub(params.UsdValue)

		if holdingExists {
			if err := s.updateHoldingAmount(ctx, tx, holdingId, holdingAmount.Add(params.Quantity), holdingVersion); err != nil {
				return nil, err
			}
		} else {
			if err := s.insertHolding(ctx, tx, params.UserId, params.Coin, params.Quantity); err != nil {
				return nil, err
			}
		}

	case store.SideSell:
		if !holdingExists || holdingAmount.LessThan(params.Quantity) {
			return nil, store.ErrInsufficientHoldings
		}
		newBalance = balance.Add(params.UsdValue)

		// A holding drained to zero (or below, on rounding) is removed
		// rather than kept at zero quantity.
		remaining := holdingAmount.Sub(params.Quantity)
		if remaining.LessThanOrEqual(decimal.Zero) {
			if err := s.deleteHolding(ctx, tx, holdingId, holdingVersion); err != nil {
				return nil, err
			}
		} else {
			if err := s.updateHoldingAmount(ctx, tx, holdingId, remaining, holdingVersion); err != nil {
				return nil, err
			}
		}
	}

	// Update cash balance (with optimistic locking)
	result, err := tx.ExecContext(ctx, queryUpdateUserBalance, newBalance.String(), params.UserId, userVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	// Append the immutable trade record
	trade := &models.Trade{}
	var amountStr, usdValueStr string
	err = tx.QueryRowContext(ctx, queryInsertTrade,
		uuid.New().String(), params.UserId, params.Coin,
		params.Quantity.String(), params.UsdValue.String(), string(params.Side), time.Now()).
		Scan(&trade.Id, &trade.UserId, &trade.Coin, &amountStr, &usdValueStr, &trade.Type, &trade.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert trade: %w", err)
	}

	trade.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse returned amount: %w", err)
	}
	trade.UsdValue, err = decimal.NewFromString(usdValueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse returned usd_value: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Trade executed successfully",
		zap.String("trade_id", trade.Id),
		zap.String("user_id", params.UserId),
		zap.String("coin", params.Coin),
		zap.String("side", string(params.Side)),
		zap.String("old_balance", balance.String()),
		zap.String("new_balance", newBalance.String()))

	return trade, nil
}

// insertHolding creates the first holding row for user/coin. A concurrent
// trade that created the row after our read trips UNIQUE(user_id, coin);
// that loss is surfaced as ErrConcurrentModification so the caller retries
// against the now-existing row.
func (s *Service) insertHolding(ctx context.Context, tx *sql.Tx, userId, coin string, amount decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, queryInsertHolding,
		uuid.New().String(), userId, coin, amount.String())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("holding insert failed - %w", store.ErrConcurrentModification)
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}
	return nil
}

func (s *Service) updateHoldingAmount(ctx context.Context, tx *sql.Tx, holdingId string, amount decimal.Decimal, version int64) error {
	result, err := tx.ExecContext(ctx, queryUpdateHoldingAmount, amount.String(), holdingId, version)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("holding update failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

func (s *Service) deleteHolding(ctx context.Context, tx *sql.Tx, holdingId string, version int64) error {
	result, err := tx.ExecContext(ctx, queryDeleteHolding, holdingId, version)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("holding delete failed - %w", store.ErrConcurrentModification)
	}
	return nil
}

// GetRecentTrades returns the newest trades for a user, newest first
func (s *Service) GetRecentTrades(ctx context.Context, userId string, limit int) ([]models.Trade, error) {
	zap.L().Debug("Getting recent trades", zap.String("user_id", userId), zap.Int("limit", limit))

	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, queryGetRecentTrades, userId, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent trades: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var trades []models.Trade
	for rows.Next() {
		var trade models.Trade
		var amountStr, usdValueStr string
		err := rows.Scan(&trade.Id, &trade.UserId, &trade.Coin, &amountStr, &usdValueStr,
			&trade.Type, &trade.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}

		trade.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
		}

		trade.UsdValue, err = decimal.NewFromString(usdValueStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse usd_value '%s': %w", usdValueStr, err)
		}

		trades = append(trades, trade)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during trade row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}

	return trades, nil
}
