package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types.
const (
	AccountChecking = 1 // "MT" prefix
	AccountSavings  = 2 // "AH" prefix
)

// Account statuses.
const (
	AccountActive   = 1
	AccountInactive = 2
)

// Currency ids. Conversion happens against a fixed quetzal-anchored table.
const (
	CurrencyGTQ = 1
	CurrencyUSD = 2
	CurrencyEUR = 3
)

type Account struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"client_id"`
	Number         string          `json:"number"`
	Type           int             `json:"type"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	CurrencyID     int             `json:"currency_id"`
	Status         int             `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Type       *int
	CurrencyID *int
	Status     *int
	From       *time.Time
	To         *time.Time
}
