package utils

import (
	"testing"

	"github.com/marlonmr/banco-mr/internal/models"
)

func TestAccountNumber(t *testing.T) {
	cases := []struct {
		accountType int
		currency    int
		n           int64
		want        string
	}{
		{models.AccountChecking, models.CurrencyGTQ, 1, "MTQ0001"},
		{models.AccountSavings, models.CurrencyUSD, 42, "AHD0042"},
		{models.AccountSavings, models.CurrencyEUR, 9999, "AHE9999"},
		{99, 99, 7, "OTX0007"},
	}
	for _, tc := range cases {
		if got := AccountNumber(tc.accountType, tc.currency, tc.n); got != tc.want {
			t.Errorf("AccountNumber(%d, %d, %d) = %q, want %q", tc.accountType, tc.currency, tc.n, got, tc.want)
		}
	}
}

func TestDocumentNumber(t *testing.T) {
	cases := []struct {
		txType   int
		currency int
		n        int64
		want     string
	}{
		{models.TxDeposit, models.CurrencyGTQ, 1, "DEPQ0001"},
		{models.TxWithdrawal, models.CurrencyUSD, 12, "RETD0012"},
		{models.TxTransfer, models.CurrencyEUR, 3, "TRAE0003"},
		{models.TxLoanDisbursement, models.CurrencyGTQ, 8, "PREQ0008"},
	}
	for _, tc := range cases {
		if got := DocumentNumber(tc.txType, tc.currency, tc.n); got != tc.want {
			t.Errorf("DocumentNumber(%d, %d, %d) = %q, want %q", tc.txType, tc.currency, tc.n, got, tc.want)
		}
	}
}

func TestLoanAndPaymentNumbers(t *testing.T) {
	if got := LoanNumber(1); got != "PRE000001" {
		t.Errorf("LoanNumber(1) = %q", got)
	}
	if got := LoanNumber(123456); got != "PRE123456" {
		t.Errorf("LoanNumber(123456) = %q", got)
	}
	if got := PaymentDocument(2024, 1); got != "PAG20240001" {
		t.Errorf("PaymentDocument(2024, 1) = %q", got)
	}
	if got := PaymentDocument(2025, 731); got != "PAG20250731" {
		t.Errorf("PaymentDocument(2025, 731) = %q", got)
	}
}
