package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation records how one installment was touched by a payment.
type Allocation struct {
	Sequence int             `json:"sequence"`
	Capital  decimal.Decimal `json:"capital_applied"`
	Interest decimal.Decimal `json:"interest_applied"`
	LateFee  decimal.Decimal `json:"late_fee_applied"`
	Amount   decimal.Decimal `json:"amount_applied"`
	Status   Status          `json:"resulting_status"`
}

// AllocationResult aggregates a single payment run. The invariant
// TotalApplied + Unapplied == available amount always holds.
type AllocationResult struct {
	Allocations   []Allocation    `json:"allocations"`
	TotalCapital  decimal.Decimal `json:"total_capital_applied"`
	TotalInterest decimal.Decimal `json:"total_interest_applied"`
	TotalLateFee  decimal.Decimal `json:"total_late_fee_applied"`
	TotalApplied  decimal.Decimal `json:"total_applied"`
	Settled       int             `json:"installments_settled"`
	Unapplied     decimal.Decimal `json:"unapplied_amount"`
	Overpaid      bool            `json:"overpaid"`
}

// AllocatePayment distributes available across the installments, earliest
// sequence first. An installment fully covered is settled in place
// (status, settled date, settlement reference). When the remainder only
// partially covers an installment it is applied interest first, then
// capital, and the installment stays OUTSTANDING; no later installment is
// touched. Late fees are always 0.00: an arrears policy is a separate
// concern and the field is reserved for it.
//
// The caller owns every precondition about the payer (balance checks) and
// persists the mutated installments afterwards. Money left over once all
// installments are settled is reported as Unapplied with Overpaid set; it
// is never silently absorbed.
func AllocatePayment(available decimal.Decimal, installments []*Installment, paymentDate time.Time, reference string) (*AllocationResult, error) {
	if available.IsNegative() {
		return nil, ErrNegativeAmount
	}
	if len(installments) == 0 {
		return nil, ErrNoOutstandingInstallments
	}

	res := &AllocationResult{
		TotalCapital:  decimal.Zero,
		TotalInterest: decimal.Zero,
		TotalLateFee:  decimal.Zero,
		TotalApplied:  decimal.Zero,
		Unapplied:     decimal.Zero,
	}

	for _, inst := range installments {
		if !available.IsPositive() {
			break
		}

		var capital, interest decimal.Decimal
		if available.GreaterThanOrEqual(inst.Total) {
			capital = inst.Capital
			interest = inst.Interest

			settled := paymentDate
			inst.Status = StatusSettled
			inst.SettledDate = &settled
			inst.SettlementRef = reference
			res.Settled++
		} else {
			remaining := available
			interest = decimal.Min(remaining, inst.Interest)
			remaining = remaining.Sub(interest)
			capital = decimal.Min(remaining, inst.Capital)
		}

		applied := capital.Add(interest)
		res.Allocations = append(res.Allocations, Allocation{
			Sequence: inst.Sequence,
			Capital:  capital,
			Interest: interest,
			LateFee:  decimal.Zero,
			Amount:   applied,
			Status:   inst.Status,
		})

		res.TotalCapital = res.TotalCapital.Add(capital)
		res.TotalInterest = res.TotalInterest.Add(interest)
		res.TotalApplied = res.TotalApplied.Add(applied)
		available = available.Sub(applied)
	}

	res.Unapplied = available
	res.Overpaid = available.IsPositive()
	return res, nil
}
