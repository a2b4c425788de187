package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// outstanding builds an OUTSTANDING installment from capital/interest.
func outstanding(seq int, capital, interest string) *Installment {
	c, i := dec(capital), dec(interest)
	return &Installment{
		Sequence: seq,
		DueDate:  date(2024, time.Month(seq), 1),
		Capital:  c,
		Interest: i,
		Total:    c.Add(i),
		Status:   StatusOutstanding,
	}
}

func TestAllocatePaymentFullThenPartial(t *testing.T) {
	// Two installments of 1000.00 each; 1500.00 settles the first and
	// covers 500.00 of the second, interest first.
	insts := []*Installment{
		outstanding(1, "900.00", "100.00"),
		outstanding(2, "900.00", "100.00"),
	}
	payDate := date(2024, time.April, 2)

	res, err := AllocatePayment(dec("1500.00"), insts, payDate, "PAG20240001")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}

	if len(res.Allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(res.Allocations))
	}
	if res.Settled != 1 {
		t.Errorf("settled = %d, want 1", res.Settled)
	}

	a1 := res.Allocations[0]
	if a1.Status != StatusSettled || !a1.Amount.Equal(dec("1000.00")) {
		t.Errorf("allocation 1 = %+v, want settled 1000.00", a1)
	}
	if insts[0].Status != StatusSettled {
		t.Errorf("installment 1 status = %s, want SETTLED", insts[0].Status)
	}
	if insts[0].SettledDate == nil || !insts[0].SettledDate.Equal(payDate) {
		t.Errorf("installment 1 settled date = %v, want %s", insts[0].SettledDate, payDate)
	}
	if insts[0].SettlementRef != "PAG20240001" {
		t.Errorf("installment 1 settlement ref = %q", insts[0].SettlementRef)
	}

	a2 := res.Allocations[1]
	if a2.Status != StatusOutstanding {
		t.Errorf("allocation 2 status = %s, want OUTSTANDING", a2.Status)
	}
	if !a2.Interest.Equal(dec("100.00")) || !a2.Capital.Equal(dec("400.00")) {
		t.Errorf("allocation 2 = interest %s capital %s, want 100.00/400.00", a2.Interest, a2.Capital)
	}
	if insts[1].Status != StatusOutstanding || insts[1].SettledDate != nil {
		t.Errorf("installment 2 mutated unexpectedly: %+v", insts[1])
	}

	if !res.Unapplied.IsZero() || res.Overpaid {
		t.Errorf("unapplied = %s overpaid = %v, want 0.00/false", res.Unapplied, res.Overpaid)
	}
}

func TestAllocatePaymentOverpayment(t *testing.T) {
	insts := []*Installment{outstanding(1, "900.00", "100.00")}

	res, err := AllocatePayment(dec("1200.00"), insts, date(2024, time.May, 1), "PAG20240002")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}
	if insts[0].Status != StatusSettled {
		t.Errorf("installment status = %s, want SETTLED", insts[0].Status)
	}
	if !res.Unapplied.Equal(dec("200.00")) {
		t.Errorf("unapplied = %s, want 200.00", res.Unapplied)
	}
	if !res.Overpaid {
		t.Error("overpaid flag not set")
	}
	if !res.TotalApplied.Equal(dec("1000.00")) {
		t.Errorf("total applied = %s, want 1000.00", res.TotalApplied)
	}
}

func TestAllocatePaymentPartialSmallerThanInterest(t *testing.T) {
	// A payment smaller than the interest portion touches interest only.
	insts := []*Installment{outstanding(1, "900.00", "100.00")}

	res, err := AllocatePayment(dec("60.00"), insts, date(2024, time.May, 1), "PAG20240003")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}
	a := res.Allocations[0]
	if !a.Interest.Equal(dec("60.00")) || !a.Capital.IsZero() {
		t.Errorf("allocation = interest %s capital %s, want 60.00/0", a.Interest, a.Capital)
	}
	if res.Settled != 0 || insts[0].Status != StatusOutstanding {
		t.Error("installment should remain outstanding")
	}
}

func TestAllocatePaymentConservation(t *testing.T) {
	amounts := []string{"0.00", "0.01", "99.99", "1000.00", "1500.00", "2000.00", "2500.37"}
	for _, amount := range amounts {
		insts := []*Installment{
			outstanding(1, "900.00", "100.00"),
			outstanding(2, "920.00", "80.00"),
		}
		res, err := AllocatePayment(dec(amount), insts, date(2024, time.June, 1), "PAG20240004")
		if err != nil {
			t.Fatalf("AllocatePayment(%s): %v", amount, err)
		}
		total := res.TotalCapital.Add(res.TotalInterest).Add(res.TotalLateFee).Add(res.Unapplied)
		if !total.Equal(dec(amount)) {
			t.Errorf("AllocatePayment(%s): capital+interest+fees+unapplied = %s", amount, total)
		}
		if !res.TotalApplied.Add(res.Unapplied).Equal(dec(amount)) {
			t.Errorf("AllocatePayment(%s): applied+unapplied = %s", amount, res.TotalApplied.Add(res.Unapplied))
		}
	}
}

func TestAllocatePaymentOrder(t *testing.T) {
	// The earliest installment is always settled before a later one is
	// touched, whatever the capital/interest split looks like.
	insts := []*Installment{
		outstanding(1, "100.00", "900.00"),
		outstanding(2, "999.00", "1.00"),
	}
	res, err := AllocatePayment(dec("1000.00"), insts, date(2024, time.July, 1), "PAG20240005")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}
	if insts[0].Status != StatusSettled {
		t.Error("installment 1 should be settled first")
	}
	if insts[1].Status != StatusOutstanding {
		t.Error("installment 2 should be untouched")
	}
	if len(res.Allocations) != 1 {
		t.Errorf("allocations = %d, want 1 (second never reached)", len(res.Allocations))
	}
}

func TestAllocatePaymentZeroAmount(t *testing.T) {
	insts := []*Installment{outstanding(1, "900.00", "100.00")}
	res, err := AllocatePayment(decimal.Zero, insts, date(2024, time.July, 1), "PAG20240006")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}
	if len(res.Allocations) != 0 || !res.TotalApplied.IsZero() || res.Overpaid {
		t.Errorf("zero payment should be a no-op, got %+v", res)
	}
}

func TestAllocatePaymentErrors(t *testing.T) {
	if _, err := AllocatePayment(dec("100.00"), nil, date(2024, time.July, 1), "X"); !errors.Is(err, ErrNoOutstandingInstallments) {
		t.Errorf("empty queue: want ErrNoOutstandingInstallments, got %v", err)
	}
	insts := []*Installment{outstanding(1, "900.00", "100.00")}
	if _, err := AllocatePayment(dec("-1.00"), insts, date(2024, time.July, 1), "X"); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative amount: want ErrNegativeAmount, got %v", err)
	}
}

func TestAllocateGeneratedSchedule(t *testing.T) {
	// End to end: one periodic payment settles exactly one installment of a
	// generated schedule.
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("12000.00"),
		AnnualRatePercent: dec("12.00"),
		Installments:      12,
		FirstDueDate:      date(2024, time.February, 1),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	insts := make([]*Installment, len(sched.Installments))
	for i := range sched.Installments {
		insts[i] = &sched.Installments[i]
	}

	res, err := AllocatePayment(sched.Payment, insts, date(2024, time.February, 1), "PAG20240007")
	if err != nil {
		t.Fatalf("AllocatePayment: %v", err)
	}
	if res.Settled != 1 {
		t.Errorf("settled = %d, want 1", res.Settled)
	}
	if !res.Unapplied.IsZero() {
		t.Errorf("unapplied = %s, want 0", res.Unapplied)
	}
	if insts[1].Status != StatusOutstanding {
		t.Error("installment 2 should remain outstanding")
	}
}
