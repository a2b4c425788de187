package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/loan"
	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
	"github.com/marlonmr/banco-mr/internal/utils"
)

// reminderHorizon is how far ahead the scheduler looks for due installments.
const reminderHorizon = 72 * time.Hour

// ListLoanProducts returns the product catalog.
func (s *Service) ListLoanProducts(ctx context.Context) ([]models.LoanProduct, error) {
	if _, err := s.currentUser(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListLoanProducts()
}

// ListLoans returns the authenticated client's loans.
func (s *Service) ListLoans(ctx context.Context) ([]models.Loan, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListLoansByClient(user.ClientID)
}

// RequestLoanInput describes a new loan request.
type RequestLoanInput struct {
	ProductID     int64           `json:"product_id"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note,omitempty"`
}

// RequestLoan registers a pending loan and its full amortization schedule.
// The first installment falls due one month after the request; the schedule
// is generated up front so the client can review it before approval. Header
// and installments commit in one transaction.
func (s *Service) RequestLoan(ctx context.Context, in RequestLoanInput) (*models.Loan, *loan.Schedule, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: loan amount must be positive", ErrValidation)
	}

	product, err := s.repo.FindLoanProduct(in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: loan product not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	account, err := s.repo.FindAccountByNumber(in.AccountNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: account not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if account.ClientID != user.ClientID {
		return nil, nil, fmt.Errorf("%w: account does not belong to the client", ErrForbidden)
	}
	if account.Status != models.AccountActive {
		return nil, nil, fmt.Errorf("%w: account is inactive", ErrValidation)
	}

	now := s.now()
	schedule, err := loan.GenerateSchedule(loan.Terms{
		Principal:         in.Amount,
		AnnualRatePercent: product.AnnualRatePercent,
		Installments:      product.Installments,
		FirstDueDate:      loan.AddMonths(now, 1),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !schedule.Residual.IsZero() {
		s.log.Warnf("Schedule residual %s folded into final installment", schedule.Residual.StringFixed(2))
	}

	seq, err := s.repo.NextLoanSeq()
	if err != nil {
		return nil, nil, err
	}

	l := &models.Loan{
		ClientID:     user.ClientID,
		ProductID:    product.ID,
		AccountID:    account.ID,
		Number:       utils.LoanNumber(seq),
		Amount:       in.Amount,
		Balance:      in.Amount,
		CurrencyID:   account.CurrencyID,
		Status:       models.LoanPending,
		RequestedAt:  now,
		MaturityDate: loan.AddMonths(now, product.Installments),
		Note:         in.Note,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	if err := s.repo.CreateLoan(tx, l); err != nil {
		return nil, nil, err
	}
	if err := s.repo.CreateInstallments(tx, l.ID, schedule.Installments); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	if client, ok := s.clientEmail(user.ClientID); ok {
		_ = s.sender.SendLoanRequested(client.Email, client.FirstName, l.Number)
	}
	s.log.Infof("Loan requested: %s for %s over %d installments", l.Number, in.Amount.StringFixed(2), product.Installments)
	return l, schedule, nil
}

// DecideLoan approves or rejects a pending loan. Approval credits the full
// amount to the destination account and records the disbursement; both sides
// commit atomically with the decision stamp. Only pending loans can be
// decided, and only once.
func (s *Service) DecideLoan(ctx context.Context, number string, approve bool) (*models.Loan, error) {
	if _, err := s.currentAdmin(ctx); err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	l, err := s.repo.FindLoanForUpdate(tx, number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: loan not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if l.Status != models.LoanPending {
		return nil, fmt.Errorf("%w: loan is already %s", ErrConflict, l.Status)
	}

	now := s.now()
	status := models.LoanRejected
	var account *models.Account
	if approve {
		status = models.LoanApproved

		account, err = s.repo.FindAccountByIDForUpdate(tx, l.AccountID)
		if err != nil {
			return nil, err
		}
		newBalance := account.Balance.Add(l.Amount)
		if err := s.repo.UpdateAccountBalance(tx, account.ID, newBalance); err != nil {
			return nil, err
		}

		seq, err := s.repo.NextNumberSeq("transactions", utils.DocumentNumber(models.TxLoanDisbursement, l.CurrencyID, 0)[:4])
		if err != nil {
			return nil, err
		}
		t := &models.Transaction{
			DocumentNumber: utils.DocumentNumber(models.TxLoanDisbursement, l.CurrencyID, seq),
			DestAccount:    &account.ID,
			Type:           models.TxLoanDisbursement,
			Amount:         l.Amount,
			Description:    fmt.Sprintf("Disbursement of loan %s", l.Number),
		}
		if err := s.repo.CreateTransaction(tx, t); err != nil {
			return nil, err
		}
		if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
			AccountID:      account.ID,
			TransactionID:  t.ID,
			DocumentNumber: t.DocumentNumber,
			Amount:         l.Amount,
			Balance:        newBalance,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SetLoanDecision(tx, l.ID, status, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	l.Status = status
	l.DecidedAt = &now

	if approve {
		if client, ok := s.clientEmail(l.ClientID); ok {
			_ = s.sender.SendLoanApproved(client.Email, client.FirstName, l.Number, account.Number, l.Amount)
		}
	}
	s.log.Infof("Loan %s %s", l.Number, status)
	return l, nil
}

// PayLoanInput describes a loan payment from one of the client's accounts.
type PayLoanInput struct {
	LoanNumber    string          `json:"loan_number"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

// PayLoan applies a payment against the loan's outstanding installments,
// earliest first. The loan row, the installment rows and the paying account
// are all locked inside one transaction, so concurrent payments serialize.
// Only the applied portion is debited; any overpayment stays on the account
// and is reported on the receipt.
func (s *Service) PayLoan(ctx context.Context, in PayLoanInput) (*models.PaymentReceipt, *loan.AllocationResult, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	l, err := s.repo.FindLoanForUpdate(tx, in.LoanNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: loan not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if l.ClientID != user.ClientID {
		return nil, nil, fmt.Errorf("%w: loan does not belong to the client", ErrForbidden)
	}
	if l.Status != models.LoanApproved {
		return nil, nil, fmt.Errorf("%w: loan is %s, payments require an approved loan", ErrConflict, l.Status)
	}

	account, err := s.repo.FindAccountForUpdate(tx, in.AccountNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: account not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if account.ClientID != user.ClientID {
		return nil, nil, fmt.Errorf("%w: account does not belong to the client", ErrForbidden)
	}
	if account.CurrencyID != l.CurrencyID {
		return nil, nil, fmt.Errorf("%w: account currency does not match the loan", ErrValidation)
	}
	if account.Balance.LessThan(in.Amount) {
		return nil, nil, ErrInsufficientFunds
	}

	stored, err := s.repo.OutstandingInstallmentsForUpdate(tx, l.ID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	paySeq, err := s.repo.NextPaymentSeq(now.Year())
	if err != nil {
		return nil, nil, err
	}
	document := utils.PaymentDocument(now.Year(), paySeq)

	queue := make([]*loan.Installment, len(stored))
	for i := range stored {
		queue[i] = &stored[i].Installment
	}
	result, err := loan.AllocatePayment(in.Amount, queue, now, document)
	if err != nil {
		return nil, nil, err
	}

	bySequence := make(map[int]*models.Installment, len(stored))
	for i := range stored {
		bySequence[stored[i].Sequence] = &stored[i]
	}
	for _, alloc := range result.Allocations {
		if alloc.Status == loan.StatusSettled {
			if err := s.repo.UpdateInstallmentSettlement(tx, bySequence[alloc.Sequence]); err != nil {
				return nil, nil, err
			}
		}
	}

	receipt := &models.PaymentReceipt{
		Document:          document,
		Date:              now,
		LoanID:            l.ID,
		Method:            1,
		InstallmentsPaid:  result.Settled,
		Description:       in.Description,
		CapitalApplied:    result.TotalCapital,
		InterestApplied:   result.TotalInterest,
		LateFeeApplied:    result.TotalLateFee,
		TotalApplied:      result.TotalApplied,
		UnappliedReturned: result.Unapplied,
	}
	if err := s.repo.CreatePaymentReceipt(tx, receipt); err != nil {
		return nil, nil, err
	}

	items := make([]models.PaymentReceiptItem, 0, len(result.Allocations))
	for _, alloc := range result.Allocations {
		items = append(items, models.PaymentReceiptItem{
			ReceiptID:       receipt.ID,
			LoanID:          l.ID,
			InstallmentID:   bySequence[alloc.Sequence].ID,
			Sequence:        alloc.Sequence,
			CapitalApplied:  alloc.Capital,
			InterestApplied: alloc.Interest,
			LateFeeApplied:  alloc.LateFee,
			TotalApplied:    alloc.Amount,
		})
	}
	if err := s.repo.CreatePaymentReceiptItems(tx, items); err != nil {
		return nil, nil, err
	}

	newLoanBalance := l.Balance.Sub(result.TotalCapital)
	if err := s.repo.UpdateLoanBalance(tx, l.ID, newLoanBalance); err != nil {
		return nil, nil, err
	}

	newBalance := account.Balance.Sub(result.TotalApplied)
	if err := s.repo.UpdateAccountBalance(tx, account.ID, newBalance); err != nil {
		return nil, nil, err
	}
	t := &models.Transaction{
		DocumentNumber: document,
		SourceAccount:  &account.ID,
		Type:           models.TxLoanPayment,
		Amount:         result.TotalApplied,
		Description:    fmt.Sprintf("Payment to loan %s", l.Number),
	}
	if err := s.repo.CreateTransaction(tx, t); err != nil {
		return nil, nil, err
	}
	if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
		AccountID:      account.ID,
		TransactionID:  t.ID,
		DocumentNumber: document,
		Amount:         result.TotalApplied,
		Balance:        newBalance,
	}); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	if result.Overpaid {
		s.log.Warnf("Payment %s overpaid loan %s by %s, amount left on account", document, l.Number, result.Unapplied.StringFixed(2))
	}
	if client, ok := s.clientEmail(user.ClientID); ok {
		_ = s.sender.SendPaymentReceived(client.Email, client.FirstName, l.Number, document, result.TotalApplied, newLoanBalance)
	}
	s.log.Infof("Payment %s applied %s to loan %s (%d settled)", document, result.TotalApplied.StringFixed(2), l.Number, result.Settled)
	return receipt, result, nil
}

// LoanSchedule returns the stored amortization table. Clients see their own
// loans only; admins see any loan.
func (s *Service) LoanSchedule(ctx context.Context, number string) (*models.Loan, []models.Installment, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, nil, err
	}

	l, err := s.repo.FindLoanByNumber(number)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: loan not found", ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if user.Role != models.RoleAdmin && l.ClientID != user.ClientID {
		return nil, nil, fmt.Errorf("%w: loan does not belong to the client", ErrForbidden)
	}

	installments, err := s.repo.ListInstallments(l.ID)
	if err != nil {
		return nil, nil, err
	}
	return l, installments, nil
}

// SendPaymentReminders mails upcoming and overdue installment notices. It
// runs from the scheduler, so there is no request identity; per-recipient
// failures are logged and skipped.
func (s *Service) SendPaymentReminders() {
	now := s.now()
	rows, err := s.repo.DueInstallments(now.Add(reminderHorizon))
	if err != nil {
		s.log.Errorf("Failed to load due installments: %v", err)
		return
	}

	sent := 0
	for _, row := range rows {
		overdue := row.DueDate.Before(now)
		if err := s.sender.SendPaymentReminder(row.Email, row.FirstName, row.LoanNumber, row.DueDate, row.Total, row.ArrearsRate, overdue); err != nil {
			s.log.Errorf("Failed to send reminder for loan %s to %s: %v", row.LoanNumber, row.Email, err)
			continue
		}
		sent++
	}
	s.log.Infof("Payment reminders sent: %d of %d", sent, len(rows))
}
