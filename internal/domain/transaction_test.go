package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction(t *testing.T) {
	now := time.Date(2024, 3, 9, 16, 5, 0, 0, time.UTC)
	tx := NewTransaction(TransactionReceive, decimal.NewFromInt(100), "Deposit via Network", now)

	assert.True(t, strings.HasPrefix(tx.ID, "tx-"))
	assert.Equal(t, Asset, tx.Asset)
	assert.Equal(t, "2024-03-09 16:05", tx.Date)
	assert.Equal(t, TransactionCompleted, tx.Status)
	assert.Nil(t, tx.Fee)

	other := NewTransaction(TransactionReceive, decimal.NewFromInt(100), "", now)
	assert.NotEqual(t, tx.ID, other.ID)
}

func TestTransaction_Signed(t *testing.T) {
	amount := decimal.NewFromInt(5)
	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{"receive", Transaction{Type: TransactionReceive, Amount: amount}, "5"},
		{"p2p received", Transaction{Type: TransactionP2PReceived, Amount: amount}, "5"},
		{"send", Transaction{Type: TransactionSend, Amount: amount}, "-5"},
		{"send with fee", Transaction{Type: TransactionSend, Amount: amount}.WithFee(decimal.NewFromInt(1)), "-6"},
		{"p2p sent", Transaction{Type: TransactionP2PSent, Amount: amount}, "-5"},
		{"buy is inert", Transaction{Type: TransactionBuy, Amount: amount}, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tx.Signed().String())
		})
	}
}

func TestTransaction_WithZeroFeeDropsField(t *testing.T) {
	tx := Transaction{Type: TransactionSend, Amount: decimal.NewFromInt(5)}.WithFee(decimal.Zero)
	assert.Nil(t, tx.Fee)
}

func TestNetFlow(t *testing.T) {
	admin := DefaultAdmin("h", "s")
	assert.Equal(t, "9500", NetFlow(admin.Transactions).String())
	assert.True(t, NetFlow(nil).IsZero())
}

func TestUser_MatchesAndClone(t *testing.T) {
	u := DefaultAdmin("h", "s")
	assert.True(t, u.Matches("  ADMIN "))
	assert.True(t, u.Matches("Admin@Trustio.com"))
	assert.False(t, u.Matches(""))
	assert.False(t, u.Matches("root"))
	assert.Equal(t, "admin@trustio.com", u.Key())

	cp := u.Clone()
	cp.Transactions[0].Details = "changed"
	require.Len(t, u.Transactions, 2)
	assert.Equal(t, "Initial Deposit", u.Transactions[0].Details)
}

func TestUser_Prepend(t *testing.T) {
	u := DefaultAdmin("h", "s")
	tx := NewTransaction(TransactionReceive, decimal.NewFromInt(1), "", time.Now())
	history := u.Prepend(tx)
	require.Len(t, history, 3)
	assert.Equal(t, tx.ID, history[0].ID)
	assert.Equal(t, "tx-init-1", history[1].ID)
	assert.Len(t, u.Transactions, 2)
}

func TestParseTheme(t *testing.T) {
	th, ok := ParseTheme(" Dark ")
	assert.True(t, ok)
	assert.Equal(t, ThemeDark, th)

	_, ok = ParseTheme("sepia")
	assert.False(t, ok)
}
