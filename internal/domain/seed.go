package domain

import "github.com/shopspring/decimal"

// Seed administrator credentials installed on first run.
const (
	AdminUsername  = "admin"
	AdminEmail     = "admin@trustio.com"
	AdminPassword  = "123456"
	AdminSecretKey = "admin-secret"
)

// DefaultAdmin builds the seed administrator from already hashed credentials.
func DefaultAdmin(passwordHash, secretKeyHash string) User {
	return User{
		Username:      AdminUsername,
		Email:         AdminEmail,
		PasswordHash:  passwordHash,
		SecretKeyHash: secretKeyHash,
		TotalAssets:   decimal.RequireFromString("12500.50"),
		MonthlyYield:  decimal.RequireFromString("342.15"),
		Transactions: []Transaction{
			{
				ID:      "tx-init-1",
				Type:    TransactionReceive,
				Amount:  decimal.NewFromInt(10000),
				Asset:   Asset,
				Date:    "2023-10-01 09:00",
				Status:  TransactionCompleted,
				Details: "Initial Deposit",
			},
			{
				ID:      "tx-init-2",
				Type:    TransactionSend,
				Amount:  decimal.NewFromInt(500),
				Asset:   Asset,
				Date:    "2023-10-05 14:30",
				Status:  TransactionCompleted,
				Details: "External Wallet",
			},
		},
	}
}
