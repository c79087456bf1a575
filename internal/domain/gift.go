package domain

import "github.com/shopspring/decimal"

type GiftMode string

const (
	GiftFixed GiftMode = "fixed"
	GiftLucky GiftMode = "lucky"
)

// GiftLink is a shareable claim link. Creating one moves no funds.
type GiftLink struct {
	ID         string          `json:"id"`
	URL        string          `json:"url"`
	Mode       GiftMode        `json:"mode"`
	Amount     decimal.Decimal `json:"amount"`
	Recipients int             `json:"recipients"`
	Message    string          `json:"message,omitempty"`
	Creator    string          `json:"creator"`
}
