package loan

import "errors"

var (
	// ErrInvalidTerms is returned by GenerateSchedule for a non-positive
	// principal or term, or a negative interest rate.
	ErrInvalidTerms = errors.New("invalid loan terms")

	// ErrNoOutstandingInstallments is returned by AllocatePayment when the
	// installment queue is empty (fully settled loan or bad query).
	ErrNoOutstandingInstallments = errors.New("no outstanding installments")

	// ErrNegativeAmount is returned by AllocatePayment for a negative
	// payment amount.
	ErrNegativeAmount = errors.New("payment amount must not be negative")
)
