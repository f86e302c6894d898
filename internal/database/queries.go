/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, email, password_hash, balance, version, created_at, updated_at
		FROM users
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, email, password_hash, balance) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, email, password_hash, balance, version, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, email, password_hash, balance, version, created_at, updated_at
		FROM users
		WHERE email = ?`

	queryGetUserForTrade = `
		SELECT balance, version
		FROM users
		WHERE id = ?`

	queryUpdateUserBalance = `
		UPDATE users
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Holding queries
	queryGetHolding = `
		SELECT id, user_id, coin, amount, version, updated_at
		FROM holdings
		WHERE user_id = ? AND coin = ?`

	queryGetUserHoldings = `
		SELECT id, user_id, coin, amount, version, updated_at
		FROM holdings
		WHERE user_id = ?
		ORDER BY coin`

	queryGetHoldingForTrade = `
		SELECT id, amount, version
		FROM holdings
		WHERE user_id = ? AND coin = ?`

	queryInsertHolding = `
		INSERT INTO holdings (id, user_id, coin, amount, version)
		VALUES (?, ?, ?, ?, 1)`

	queryUpdateHoldingAmount = `
		UPDATE holdings
		SET amount = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	queryDeleteHolding = `
		DELETE FROM holdings
		WHERE id = ? AND version = ?`

	// Trade queries
	queryInsertTrade = `
		INSERT INTO trades (id, user_id, coin, amount, usd_value, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, coin, amount, usd_value, type, created_at`

	queryGetRecentTrades = `
		SELECT id, user_id, coin, amount, usd_value, type, created_at
		FROM trades
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	// Session queries
	queryInsertSession = `
		INSERT INTO sessions (token, user_id, expires_at)
		VALUES (?, ?, ?)
		RETURNING token, user_id, expires_at, created_at`

	queryGetUserBySession = `
		SELECT u.id, u.email, u.password_hash, u.balance, u.version, u.created_at, u.updated_at
		FROM users u
		JOIN sessions s ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`

	queryDeleteSession = `
		DELETE FROM sessions WHERE token = ?`

	queryDeleteExpiredSessions = `
		DELETE FROM sessions WHERE expires_at <= ?`
)
