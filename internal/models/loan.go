package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/loan"
)

// Loan statuses.
const (
	LoanPending  = "pending"
	LoanApproved = "approved"
	LoanRejected = "rejected"
)

// LoanProduct is a catalog entry: term length, pricing and arrears rate.
type LoanProduct struct {
	ID                 int64           `json:"id"`
	Installments       int             `json:"installments"`
	AnnualRatePercent  decimal.Decimal `json:"annual_rate_percent"`
	ArrearsRatePercent decimal.Decimal `json:"arrears_rate_percent"`
	Description        string          `json:"description"`
}

// Loan is the header row; the schedule lives in Installment rows.
// Balance is decremented by the capital portion of every payment.
type Loan struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"client_id"`
	ProductID    int64           `json:"product_id"`
	AccountID    int64           `json:"account_id"` // disbursement destination
	Number       string          `json:"number"`
	Amount       decimal.Decimal `json:"amount"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyID   int             `json:"currency_id"`
	Status       string          `json:"status"`
	RequestedAt  time.Time       `json:"requested_at"`
	DecidedAt    *time.Time      `json:"decided_at,omitempty"`
	MaturityDate time.Time       `json:"maturity_date"`
	Note         string          `json:"note,omitempty"`
}

// Installment is one persisted schedule row. The embedded loan.Installment
// carries the amounts and settlement state the allocator works on.
type Installment struct {
	ID     int64 `json:"id"`
	LoanID int64 `json:"loan_id"`
	loan.Installment
}

// PaymentReceipt is the header written for every payment run.
type PaymentReceipt struct {
	ID                int64           `json:"id"`
	Document          string          `json:"document"`
	Date              time.Time       `json:"date"`
	LoanID            int64           `json:"loan_id"`
	Method            int             `json:"method"` // 1 = account debit
	InstallmentsPaid  int             `json:"installments_paid"`
	Description       string          `json:"description"`
	CapitalApplied    decimal.Decimal `json:"capital_applied"`
	InterestApplied   decimal.Decimal `json:"interest_applied"`
	LateFeeApplied    decimal.Decimal `json:"late_fee_applied"`
	TotalApplied      decimal.Decimal `json:"total_applied"`
	UnappliedReturned decimal.Decimal `json:"unapplied_returned"`
}

// PaymentReceiptItem records how one installment was touched by a payment.
type PaymentReceiptItem struct {
	ID              int64           `json:"id"`
	ReceiptID       int64           `json:"receipt_id"`
	LoanID          int64           `json:"loan_id"`
	InstallmentID   int64           `json:"installment_id"`
	Sequence        int             `json:"sequence"`
	CapitalApplied  decimal.Decimal `json:"capital_applied"`
	InterestApplied decimal.Decimal `json:"interest_applied"`
	LateFeeApplied  decimal.Decimal `json:"late_fee_applied"`
	TotalApplied    decimal.Decimal `json:"total_applied"`
}
