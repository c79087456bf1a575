package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// User represents a registered wallet account. Email is the directory key.
type User struct {
	Username      string          `json:"username"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"passwordHash"`
	SecretKeyHash string          `json:"secretKeyHash"`
	TotalAssets   decimal.Decimal `json:"totalAssets"`
	MonthlyYield  decimal.Decimal `json:"monthlyYield"`
	Transactions  []Transaction   `json:"transactions"`
	Avatar        string          `json:"avatar,omitempty"`
}

// NormalizeIdentifier trims and lowercases a username or email for comparison.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Key returns the normalized email the directory indexes the user by.
func (u User) Key() string {
	return NormalizeIdentifier(u.Email)
}

// Matches reports whether identifier names this user by username or email.
func (u User) Matches(identifier string) bool {
	id := NormalizeIdentifier(identifier)
	if id == "" {
		return false
	}
	return NormalizeIdentifier(u.Username) == id || NormalizeIdentifier(u.Email) == id
}

// Clone returns a copy that shares no mutable state with u.
func (u User) Clone() User {
	cp := u
	if u.Transactions != nil {
		cp.Transactions = make([]Transaction, len(u.Transactions))
		copy(cp.Transactions, u.Transactions)
	}
	return cp
}

// Prepend returns the user's history with tx placed first.
func (u User) Prepend(tx Transaction) []Transaction {
	out := make([]Transaction, 0, len(u.Transactions)+1)
	out = append(out, tx)
	return append(out, u.Transactions...)
}
