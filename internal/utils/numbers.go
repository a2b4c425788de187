package utils

import (
	"fmt"

	"github.com/marlonmr/banco-mr/internal/models"
)

// Formatting of the human-facing account, document, loan and payment
// numbers. The sequence values come from the repository; these helpers only
// produce the printable form.

func accountTypeCode(accountType int) string {
	switch accountType {
	case models.AccountChecking:
		return "MT"
	case models.AccountSavings:
		return "AH"
	default:
		return "OT"
	}
}

func currencyCode(currencyID int) string {
	switch currencyID {
	case models.CurrencyGTQ:
		return "Q"
	case models.CurrencyUSD:
		return "D"
	case models.CurrencyEUR:
		return "E"
	default:
		return "X"
	}
}

func transactionTypeCode(txType int) string {
	switch txType {
	case models.TxDeposit:
		return "DEP"
	case models.TxWithdrawal:
		return "RET"
	case models.TxTransfer:
		return "TRA"
	case models.TxLoanDisbursement, models.TxLoanPayment:
		return "PRE"
	default:
		return "OTR"
	}
}

// AccountNumber builds e.g. "MTQ0001" for the n-th checking account in GTQ.
func AccountNumber(accountType, currencyID int, n int64) string {
	return fmt.Sprintf("%s%s%04d", accountTypeCode(accountType), currencyCode(currencyID), n)
}

// DocumentNumber builds e.g. "DEPQ0001" for the n-th deposit in GTQ.
func DocumentNumber(txType, currencyID int, n int64) string {
	return fmt.Sprintf("%s%s%04d", transactionTypeCode(txType), currencyCode(currencyID), n)
}

// LoanNumber builds e.g. "PRE000001".
func LoanNumber(n int64) string {
	return fmt.Sprintf("PRE%06d", n)
}

// PaymentDocument builds e.g. "PAG20240001", a per-year sequence.
func PaymentDocument(year int, n int64) string {
	return fmt.Sprintf("PAG%d%04d", year, n)
}
