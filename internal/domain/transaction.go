package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset is the only unit balances are denominated in.
const Asset = "USDT"

// DateLayout formats Transaction.Date.
const DateLayout = "2006-01-02 15:04"

type TransactionType string

const (
	TransactionBuy         TransactionType = "Buy"
	TransactionSell        TransactionType = "Sell"
	TransactionReceive     TransactionType = "Receive"
	TransactionSend        TransactionType = "Send"
	TransactionP2PSent     TransactionType = "P2P Sent"
	TransactionP2PReceived TransactionType = "P2P Received"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "Completed"
	TransactionPending   TransactionStatus = "Pending"
	TransactionFailed    TransactionStatus = "Failed"
)

// Transaction is an immutable record of one balance-affecting event.
// Amount is always positive; direction follows from Type.
type Transaction struct {
	ID      string            `json:"id"`
	Type    TransactionType   `json:"type"`
	Amount  decimal.Decimal   `json:"amount"`
	Fee     *decimal.Decimal  `json:"fee,omitempty"`
	Asset   string            `json:"asset"`
	Date    string            `json:"date"`
	Status  TransactionStatus `json:"status"`
	Details string            `json:"details,omitempty"`
}

// NewTransactionID returns a fresh identifier that is never reused.
func NewTransactionID() string {
	return "tx-" + uuid.NewString()
}

// NewTransaction builds a completed transaction stamped with now.
func NewTransaction(typ TransactionType, amount decimal.Decimal, details string, now time.Time) Transaction {
	return Transaction{
		ID:      NewTransactionID(),
		Type:    typ,
		Amount:  amount,
		Asset:   Asset,
		Date:    now.Format(DateLayout),
		Status:  TransactionCompleted,
		Details: details,
	}
}

// WithFee returns a copy of t carrying fee. A zero fee is left off.
func (t Transaction) WithFee(fee decimal.Decimal) Transaction {
	if fee.IsZero() {
		t.Fee = nil
		return t
	}
	f := fee
	t.Fee = &f
	return t
}

// Signed returns the effect of t on the owner's balance.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Type {
	case TransactionReceive, TransactionP2PReceived:
		return t.Amount
	case TransactionSend, TransactionP2PSent:
		out := t.Amount
		if t.Fee != nil {
			out = out.Add(*t.Fee)
		}
		return out.Neg()
	default:
		return decimal.Zero
	}
}

// NetFlow sums the signed effect of every transaction in txs.
func NetFlow(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Signed())
	}
	return total
}
