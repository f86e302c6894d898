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

package main

import (
	"context"
	"flag"
	"fmt"

	"paper-trading-go/internal/common"
	"paper-trading-go/internal/config"
	"paper-trading-go/internal/database"
	"paper-trading-go/internal/models"

	"go.uber.org/zap"
)

func printHolding(holding models.Holding, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s %-8s: %20s (updated: %s)\n",
		symbol,
		holding.Coin,
		holding.Amount.String(),
		holding.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printUserHeader(user models.User, holdingCount int) {
	fmt.Printf("\n┌─ User: %s\n", user.Email)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Cash balance: %s\n", user.Balance.String())
	fmt.Printf("│  Coins held: %d\n", holdingCount)
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user models.User, dbService *database.Service) (int, error) {
	holdings, err := dbService.GetUserHoldings(ctx, user.Id)
	if err != nil {
		return 0, fmt.Errorf("failed to get holdings: %w", err)
	}

	printUserHeader(user, len(holdings))
	for i, holding := range holdings {
		printHolding(holding, i == len(holdings)-1)
	}

	return len(holdings), nil
}

func main() {
	emailFilter := flag.String("email", "", "Optional email to show a single user")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	var users []models.User
	if *emailFilter != "" {
		user, err := dbService.GetUserByEmail(ctx, *emailFilter)
		if err != nil {
			zap.L().Fatal("User not found", zap.String("email", *emailFilter), zap.Error(err))
		}
		users = append(users, *user)
	} else {
		users, err = dbService.GetUsers(ctx)
		if err != nil {
			zap.L().Fatal("Failed to get users", zap.Error(err))
		}
	}

	common.PrintHeader("Paper Trading Balances", common.DefaultWidth)

	totalHoldings := 0
	for _, user := range users {
		count, err := processUser(ctx, user, dbService)
		if err != nil {
			zap.L().Error("Failed to process user", zap.String("user_id", user.Id), zap.Error(err))
			continue
		}
		totalHoldings += count
	}

	common.PrintFooter(
		fmt.Sprintf("Users: %d, holdings: %d", len(users), totalHoldings),
		common.DefaultWidth)
}
