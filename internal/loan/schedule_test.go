package loan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestGenerateScheduleConcrete(t *testing.T) {
	// 12000.00 at 12% over 12 months.
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("12000.00"),
		AnnualRatePercent: dec("12.00"),
		Installments:      12,
		FirstDueDate:      date(2024, time.February, 1),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}

	if len(sched.Installments) != 12 {
		t.Fatalf("installments = %d, want 12", len(sched.Installments))
	}
	if !sched.Payment.Equal(dec("1066.19")) {
		t.Errorf("payment = %s, want 1066.19", sched.Payment)
	}

	first := sched.Installments[0]
	if !first.Interest.Equal(dec("120.00")) {
		t.Errorf("installment 1 interest = %s, want 120.00", first.Interest)
	}
	if !first.Capital.Equal(dec("946.19")) {
		t.Errorf("installment 1 capital = %s, want 946.19", first.Capital)
	}
	if first.Status != StatusOutstanding {
		t.Errorf("installment 1 status = %s, want OUTSTANDING", first.Status)
	}
	if !first.DueDate.Equal(date(2024, time.February, 1)) {
		t.Errorf("installment 1 due = %s, want 2024-02-01", first.DueDate)
	}

	// The residual (-0.05 here) is folded into the last capital portion.
	last := sched.Installments[11]
	if !sched.Residual.Equal(dec("-0.05")) {
		t.Errorf("residual = %s, want -0.05", sched.Residual)
	}
	if !last.Capital.Equal(dec("1055.58")) {
		t.Errorf("installment 12 capital = %s, want 1055.58", last.Capital)
	}
	if !last.DueDate.Equal(date(2025, time.January, 1)) {
		t.Errorf("installment 12 due = %s, want 2025-01-01", last.DueDate)
	}

	sum := decimal.Zero
	for _, inst := range sched.Installments {
		sum = sum.Add(inst.Capital)
		if !inst.Total.Equal(inst.Capital.Add(inst.Interest)) {
			t.Errorf("installment %d total %s != capital+interest", inst.Sequence, inst.Total)
		}
	}
	if !sum.Equal(dec("12000.00")) {
		t.Errorf("sum of capital = %s, want exactly 12000.00", sum)
	}
}

func TestGenerateScheduleZeroRate(t *testing.T) {
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("10000.00"),
		AnnualRatePercent: decimal.Zero,
		Installments:      12,
		FirstDueDate:      date(2024, time.March, 15),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}

	if !sched.Payment.Equal(dec("833.33")) {
		t.Errorf("payment = %s, want 833.33", sched.Payment)
	}
	sum := decimal.Zero
	for i, inst := range sched.Installments {
		if !inst.Interest.IsZero() {
			t.Errorf("installment %d interest = %s, want 0", inst.Sequence, inst.Interest)
		}
		want := dec("833.33")
		if i == 11 {
			want = dec("833.37") // absorbs the 0.04 residual
		}
		if !inst.Capital.Equal(want) {
			t.Errorf("installment %d capital = %s, want %s", inst.Sequence, inst.Capital, want)
		}
		sum = sum.Add(inst.Capital)
	}
	if !sum.Equal(dec("10000.00")) {
		t.Errorf("sum of capital = %s, want exactly 10000.00", sum)
	}
}

func TestGenerateScheduleMonotonic(t *testing.T) {
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("1000.00"),
		AnnualRatePercent: dec("6.00"),
		Installments:      6,
		FirstDueDate:      date(2024, time.June, 1),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}

	for i := 1; i < len(sched.Installments); i++ {
		prev, cur := sched.Installments[i-1], sched.Installments[i]
		if !cur.Interest.LessThan(prev.Interest) {
			t.Errorf("interest not strictly decreasing at %d: %s -> %s", cur.Sequence, prev.Interest, cur.Interest)
		}
		if !cur.Capital.GreaterThan(prev.Capital) {
			t.Errorf("capital not strictly increasing at %d: %s -> %s", cur.Sequence, prev.Capital, cur.Capital)
		}
		// Totals are constant except for the residual fold on the last one.
		diff := cur.Total.Sub(prev.Total).Abs()
		if i < len(sched.Installments)-1 && !diff.IsZero() {
			t.Errorf("total changed at %d: %s -> %s", cur.Sequence, prev.Total, cur.Total)
		}
		if diff.GreaterThan(dec("0.10")) {
			t.Errorf("total drifted too far at %d: %s -> %s", cur.Sequence, prev.Total, cur.Total)
		}
	}
}

func TestGenerateScheduleCapitalConservation(t *testing.T) {
	cases := []struct {
		principal string
		rate      string
		n         int
	}{
		{"5000.00", "15.50", 24},
		{"250000.00", "9.75", 360},
		{"999.99", "1.00", 3},
		{"12000.00", "0.00", 7},
	}
	for _, tc := range cases {
		sched, err := GenerateSchedule(Terms{
			Principal:         dec(tc.principal),
			AnnualRatePercent: dec(tc.rate),
			Installments:      tc.n,
			FirstDueDate:      date(2025, time.January, 1),
		})
		if err != nil {
			t.Fatalf("GenerateSchedule(%s, %s, %d): %v", tc.principal, tc.rate, tc.n, err)
		}
		sum := decimal.Zero
		for _, inst := range sched.Installments {
			sum = sum.Add(inst.Capital)
		}
		if !sum.Equal(dec(tc.principal)) {
			t.Errorf("GenerateSchedule(%s, %s, %d): capital sums to %s", tc.principal, tc.rate, tc.n, sum)
		}
		// The half-cent rounding of the payment compounds over the term,
		// so the fold can exceed a cent per installment on long horizons.
		// It can never reach a full periodic payment.
		if sched.Residual.Abs().GreaterThanOrEqual(sched.Payment) {
			t.Errorf("GenerateSchedule(%s, %s, %d): residual %s not below payment %s", tc.principal, tc.rate, tc.n, sched.Residual, sched.Payment)
		}
	}
}

func TestGenerateScheduleLongTermResidual(t *testing.T) {
	// 360 months compound the payment's half-cent rounding into a residual
	// of several quetzales; the fold still amortizes exactly.
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("250000.00"),
		AnnualRatePercent: dec("9.75"),
		Installments:      360,
		FirstDueDate:      date(2025, time.January, 1),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}

	if !sched.Residual.Equal(dec("-8.22")) {
		t.Errorf("residual = %s, want -8.22", sched.Residual)
	}
	sum := decimal.Zero
	for _, inst := range sched.Installments {
		sum = sum.Add(inst.Capital)
	}
	if !sum.Equal(dec("250000.00")) {
		t.Errorf("sum of capital = %s, want exactly 250000.00", sum)
	}
	last := sched.Installments[359]
	if !last.Total.Equal(sched.Payment.Add(sched.Residual)) {
		t.Errorf("last total = %s, want payment %s plus residual %s", last.Total, sched.Payment, sched.Residual)
	}
}

func TestGenerateScheduleInvalidTerms(t *testing.T) {
	cases := []struct {
		name  string
		terms Terms
	}{
		{"zero principal", Terms{Principal: decimal.Zero, AnnualRatePercent: dec("5"), Installments: 12}},
		{"negative principal", Terms{Principal: dec("-100"), AnnualRatePercent: dec("5"), Installments: 12}},
		{"zero installments", Terms{Principal: dec("100"), AnnualRatePercent: dec("5"), Installments: 0}},
		{"negative rate", Terms{Principal: dec("100"), AnnualRatePercent: dec("-1"), Installments: 12}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := GenerateSchedule(tc.terms); !errors.Is(err, ErrInvalidTerms) {
				t.Errorf("want ErrInvalidTerms, got %v", err)
			}
		})
	}
}

func TestGenerateScheduleDueDateClamping(t *testing.T) {
	// A schedule anchored on Jan 31 must clamp to month ends instead of
	// rolling into the following month.
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("3000.00"),
		AnnualRatePercent: dec("10.00"),
		Installments:      4,
		FirstDueDate:      date(2024, time.January, 31),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	want := []time.Time{
		date(2024, time.January, 31),
		date(2024, time.February, 29), // leap year
		date(2024, time.March, 31),
		date(2024, time.April, 30),
	}
	for i, inst := range sched.Installments {
		if !inst.DueDate.Equal(want[i]) {
			t.Errorf("installment %d due = %s, want %s", inst.Sequence, inst.DueDate, want[i])
		}
	}
}

func TestGenerateScheduleSingleInstallment(t *testing.T) {
	sched, err := GenerateSchedule(Terms{
		Principal:         dec("500.00"),
		AnnualRatePercent: dec("12.00"),
		Installments:      1,
		FirstDueDate:      date(2024, time.May, 10),
	})
	if err != nil {
		t.Fatalf("GenerateSchedule: %v", err)
	}
	if len(sched.Installments) != 1 {
		t.Fatalf("installments = %d, want 1", len(sched.Installments))
	}
	inst := sched.Installments[0]
	if !inst.Interest.Equal(dec("5.00")) {
		t.Errorf("interest = %s, want 5.00", inst.Interest)
	}
	if !inst.Capital.Equal(dec("500.00")) {
		t.Errorf("capital = %s, want 500.00", inst.Capital)
	}
}
