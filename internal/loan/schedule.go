// Package loan implements the French (equal-installment) amortization
// schedule and the allocation of payments across outstanding installments.
// Both operations are pure: persistence and notifications belong to the
// service layer.
package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Installment status values. An installment moves from OUTSTANDING to
// SETTLED exactly once; there is no reversal.
type Status string

const (
	StatusOutstanding Status = "OUTSTANDING"
	StatusSettled     Status = "SETTLED"
)

var (
	one     = decimal.NewFromInt(1)
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Terms are the immutable inputs of a schedule.
type Terms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal // 12.00 means 12% per year
	Installments      int
	FirstDueDate      time.Time
}

// Installment is one scheduled payment obligation. Capital, Interest and
// Total are fixed at generation time; Status, SettledDate and SettlementRef
// are mutated by AllocatePayment.
type Installment struct {
	Sequence      int             `json:"sequence"`
	DueDate       time.Time       `json:"due_date"`
	Capital       decimal.Decimal `json:"capital"`
	Interest      decimal.Decimal `json:"interest"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	SettledDate   *time.Time      `json:"settled_date,omitempty"`
	SettlementRef string          `json:"settlement_ref,omitempty"`
}

// Schedule is the generated amortization table. Payment is the periodic
// payment before the residual fold; Residual is the rounding drift that was
// folded into the final installment's capital.
type Schedule struct {
	Installments []Installment
	Payment      decimal.Decimal
	Residual     decimal.Decimal
}

// GenerateSchedule computes the full installment table for terms under the
// French system: equal total payment, interest on the declining balance.
// All amounts are rounded to 2 decimals, half away from zero. The rounding
// drift left after the last installment is folded into that installment's
// capital portion and reported in Schedule.Residual, so the capital portions
// always sum to the principal exactly.
func GenerateSchedule(terms Terms) (*Schedule, error) {
	if !terms.Principal.IsPositive() {
		return nil, fmt.Errorf("%w: principal must be positive, got %s", ErrInvalidTerms, terms.Principal)
	}
	if terms.Installments < 1 {
		return nil, fmt.Errorf("%w: number of installments must be at least 1, got %d", ErrInvalidTerms, terms.Installments)
	}
	if terms.AnnualRatePercent.IsNegative() {
		return nil, fmt.Errorf("%w: annual rate must not be negative, got %s", ErrInvalidTerms, terms.AnnualRatePercent)
	}

	n := int64(terms.Installments)
	monthlyRate := terms.AnnualRatePercent.Div(twelve).Div(hundred)

	var payment decimal.Decimal
	if monthlyRate.IsZero() {
		payment = terms.Principal.Div(decimal.NewFromInt(n)).Round(2)
	} else {
		// P * (1+r)^n * r / ((1+r)^n - 1), the annuity closed form.
		factor := one.Add(monthlyRate).Pow(decimal.NewFromInt(n))
		payment = terms.Principal.Mul(factor).Mul(monthlyRate).Div(factor.Sub(one)).Round(2)
	}

	installments := make([]Installment, 0, terms.Installments)
	balance := terms.Principal
	for i := 1; i <= terms.Installments; i++ {
		interest := balance.Mul(monthlyRate).Round(2)
		capital := payment.Sub(interest).Round(2)
		balance = balance.Sub(capital).Round(2)
		installments = append(installments, Installment{
			Sequence: i,
			DueDate:  AddMonths(terms.FirstDueDate, i-1),
			Capital:  capital,
			Interest: interest,
			Total:    capital.Add(interest),
			Status:   StatusOutstanding,
		})
	}

	// Fold the residual balance into the last installment so the schedule
	// amortizes the principal exactly.
	residual := balance
	if !residual.IsZero() {
		last := &installments[len(installments)-1]
		last.Capital = last.Capital.Add(residual)
		last.Total = last.Total.Add(residual)
	}

	return &Schedule{Installments: installments, Payment: payment, Residual: residual}, nil
}

// AddMonths advances t by n calendar months, clamping to the last day of
// the target month (Jan 31 + 1 month = Feb 28/29). time.AddDate would roll
// the overflow into the next month instead.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
