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
	"regexp"

	"paper-trading-go/internal/common"
	"paper-trading-go/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}

func main() {
	email := flag.String("email", "", "Email address for the new user (required)")
	password := flag.String("password", "", "Password for the new user (required)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	if err := validateEmail(*email); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	if err := validatePassword(*password); err != nil {
		zap.L().Fatal("Invalid password", zap.Error(err))
	}

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

	startingBalance, err := common.StartingBalance(cfg)
	if err != nil {
		zap.L().Fatal("Invalid starting balance", zap.Error(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Fatal("Failed to hash password", zap.Error(err))
	}

	user, err := dbService.CreateUser(ctx, uuid.New().String(), *email, string(hash), startingBalance)
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	common.PrintHeader("User created", common.DefaultWidth)
	fmt.Printf("ID:      %s\n", user.Id)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Balance: %s\n", user.Balance.String())
	common.PrintFooter("Done", common.DefaultWidth)
}
