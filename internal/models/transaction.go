package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxDeposit          = 1
	TxWithdrawal       = 2
	TxTransfer         = 3
	TxLoanDisbursement = 4
	TxLoanPayment      = 5
)

// Transaction represents a financial transaction
type Transaction struct {
	ID             int64           `json:"id"`
	DocumentNumber string          `json:"document_number"`
	Date           time.Time       `json:"date"`
	SourceAccount  *int64          `json:"source_account,omitempty"`
	DestAccount    *int64          `json:"dest_account,omitempty"`
	Type           int             `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
}

// HistoryEntry is the per-account running-balance line written for every
// movement that touches the account.
type HistoryEntry struct {
	ID             int64           `json:"id"`
	AccountID      int64           `json:"account_id"`
	TransactionID  int64           `json:"transaction_id"`
	DocumentNumber string          `json:"document_number"`
	Date           time.Time       `json:"date"`
	Amount         decimal.Decimal `json:"amount"`
	Balance        decimal.Decimal `json:"balance"`
}
