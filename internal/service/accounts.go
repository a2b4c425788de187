package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
	"github.com/marlonmr/banco-mr/internal/utils"
)

// Fixed quetzal-anchored conversion table (currency id -> GTQ per unit).
// Real rate feeds are deliberately out of scope.
var conversionRates = map[int]decimal.Decimal{
	models.CurrencyGTQ: decimal.NewFromFloat(1.0),
	models.CurrencyUSD: decimal.NewFromFloat(7.7),
	models.CurrencyEUR: decimal.NewFromFloat(8.5),
}

// ConvertCurrency converts amount between two configured currencies,
// rounded to 2 decimals.
func ConvertCurrency(amount decimal.Decimal, sourceCurrency, destCurrency int) (decimal.Decimal, error) {
	src, ok := conversionRates[sourceCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %d", ErrValidation, sourceCurrency)
	}
	dst, ok := conversionRates[destCurrency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unsupported currency %d", ErrValidation, destCurrency)
	}
	return amount.Mul(src).Div(dst).Round(2), nil
}

// CreateAccount creates a new account for the authenticated client. At most
// one account per (type, currency) pair is allowed.
func (s *Service) CreateAccount(ctx context.Context, accountType, currencyID int, initialBalance decimal.Decimal) (*models.Account, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, err
	}
	if accountType != models.AccountChecking && accountType != models.AccountSavings {
		return nil, fmt.Errorf("%w: unknown account type %d", ErrValidation, accountType)
	}
	if _, ok := conversionRates[currencyID]; !ok {
		return nil, fmt.Errorf("%w: unknown currency %d", ErrValidation, currencyID)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance must not be negative", ErrValidation)
	}

	exists, err := s.repo.AccountExists(user.ClientID, accountType, currencyID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: an account of this type and currency already exists", ErrConflict)
	}

	seq, err := s.repo.NextNumberSeq("accounts", utils.AccountNumber(accountType, currencyID, 0)[:3])
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ClientID:       user.ClientID,
		Number:         utils.AccountNumber(accountType, currencyID, seq),
		Type:           accountType,
		InitialBalance: initialBalance,
		Balance:        initialBalance,
		CurrencyID:     currencyID,
		Status:         models.AccountActive,
	}
	if err := s.repo.CreateAccount(account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created for client %d: %s", user.ClientID, account.Number)
	return account, nil
}

// ListAccounts lists the authenticated client's accounts.
func (s *Service) ListAccounts(ctx context.Context, filter models.AccountFilter) ([]models.Account, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAccounts(user.ClientID, filter)
}

// TransactionInput describes a deposit, withdrawal or transfer request.
type TransactionInput struct {
	Type          int             `json:"type"`
	SourceAccount string          `json:"source_account"`
	DestAccount   string          `json:"dest_account,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
}

// CreateTransaction executes a deposit, withdrawal or transfer against the
// authenticated client's source account. All balance mutations, the
// transaction row and the history lines commit in one transaction; emails
// go out after commit, best effort.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (*models.Transaction, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	source, err := s.repo.FindAccountByNumber(in.SourceAccount)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: source account not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if source.ClientID != user.ClientID {
		return nil, fmt.Errorf("%w: account does not belong to the client", ErrForbidden)
	}

	seq, err := s.repo.NextNumberSeq("transactions", utils.DocumentNumber(in.Type, source.CurrencyID, 0)[:4])
	if err != nil {
		return nil, err
	}
	document := utils.DocumentNumber(in.Type, source.CurrencyID, seq)

	switch in.Type {
	case models.TxDeposit:
		return s.deposit(ctx, source, document, in)
	case models.TxWithdrawal:
		return s.withdraw(ctx, source, document, in)
	case models.TxTransfer:
		return s.transfer(ctx, source, document, in)
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %d", ErrValidation, in.Type)
	}
}

func (s *Service) deposit(ctx context.Context, source *models.Account, document string, in TransactionInput) (*models.Transaction, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.repo.FindAccountForUpdate(tx, source.Number)
	if err != nil {
		return nil, err
	}
	newBalance := locked.Balance.Add(in.Amount)
	if err := s.repo.UpdateAccountBalance(tx, locked.ID, newBalance); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		DocumentNumber: document,
		SourceAccount:  &locked.ID,
		Type:           models.TxDeposit,
		Amount:         in.Amount,
		Description:    in.Description,
	}
	if err := s.repo.CreateTransaction(tx, t); err != nil {
		return nil, err
	}
	if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
		AccountID:      locked.ID,
		TransactionID:  t.ID,
		DocumentNumber: document,
		Amount:         in.Amount,
		Balance:        newBalance,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if client, ok := s.clientEmail(locked.ClientID); ok {
		_ = s.sender.SendTransactionNotification(client.Email, client.FirstName, locked.Number, document, "Deposit", in.Amount, newBalance)
	}
	s.log.Infof("Deposit %s on account %s (%s)", in.Amount.StringFixed(2), locked.Number, document)
	return t, nil
}

func (s *Service) withdraw(ctx context.Context, source *models.Account, document string, in TransactionInput) (*models.Transaction, error) {
	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.repo.FindAccountForUpdate(tx, source.Number)
	if err != nil {
		return nil, err
	}
	if locked.Balance.LessThan(in.Amount) {
		return nil, ErrInsufficientFunds
	}
	newBalance := locked.Balance.Sub(in.Amount)
	if err := s.repo.UpdateAccountBalance(tx, locked.ID, newBalance); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		DocumentNumber: document,
		SourceAccount:  &locked.ID,
		Type:           models.TxWithdrawal,
		Amount:         in.Amount,
		Description:    in.Description,
	}
	if err := s.repo.CreateTransaction(tx, t); err != nil {
		return nil, err
	}
	if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
		AccountID:      locked.ID,
		TransactionID:  t.ID,
		DocumentNumber: document,
		Amount:         in.Amount,
		Balance:        newBalance,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if client, ok := s.clientEmail(locked.ClientID); ok {
		_ = s.sender.SendTransactionNotification(client.Email, client.FirstName, locked.Number, document, "Withdrawal", in.Amount, newBalance)
	}
	s.log.Infof("Withdrawal %s on account %s (%s)", in.Amount.StringFixed(2), locked.Number, document)
	return t, nil
}

func (s *Service) transfer(ctx context.Context, source *models.Account, document string, in TransactionInput) (*models.Transaction, error) {
	if in.DestAccount == "" {
		return nil, fmt.Errorf("%w: transfer requires a destination account", ErrValidation)
	}
	dest, err := s.repo.FindAccountByNumber(in.DestAccount)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: destination account not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if dest.ID == source.ID {
		return nil, fmt.Errorf("%w: source and destination are the same account", ErrValidation)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Lock in account-number order so two opposite transfers cannot
	// deadlock.
	first, second := source.Number, dest.Number
	if second < first {
		first, second = second, first
	}
	var lockedSource, lockedDest *models.Account
	for _, number := range []string{first, second} {
		locked, err := s.repo.FindAccountForUpdate(tx, number)
		if err != nil {
			return nil, err
		}
		if number == source.Number {
			lockedSource = locked
		} else {
			lockedDest = locked
		}
	}

	if lockedSource.Balance.LessThan(in.Amount) {
		return nil, ErrInsufficientFunds
	}

	credited := in.Amount
	if lockedSource.CurrencyID != lockedDest.CurrencyID {
		credited, err = ConvertCurrency(in.Amount, lockedSource.CurrencyID, lockedDest.CurrencyID)
		if err != nil {
			return nil, err
		}
	}

	sourceBalance := lockedSource.Balance.Sub(in.Amount)
	destBalance := lockedDest.Balance.Add(credited)
	if err := s.repo.UpdateAccountBalance(tx, lockedSource.ID, sourceBalance); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAccountBalance(tx, lockedDest.ID, destBalance); err != nil {
		return nil, err
	}

	t := &models.Transaction{
		DocumentNumber: document,
		SourceAccount:  &lockedSource.ID,
		DestAccount:    &lockedDest.ID,
		Type:           models.TxTransfer,
		Amount:         in.Amount,
		Description:    in.Description,
	}
	if err := s.repo.CreateTransaction(tx, t); err != nil {
		return nil, err
	}
	if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
		AccountID:      lockedSource.ID,
		TransactionID:  t.ID,
		DocumentNumber: document,
		Amount:         in.Amount,
		Balance:        sourceBalance,
	}); err != nil {
		return nil, err
	}
	if err := s.repo.CreateHistoryEntry(tx, &models.HistoryEntry{
		AccountID:      lockedDest.ID,
		TransactionID:  t.ID,
		DocumentNumber: document,
		Amount:         credited,
		Balance:        destBalance,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if client, ok := s.clientEmail(lockedSource.ClientID); ok {
		_ = s.sender.SendTransactionNotification(client.Email, client.FirstName, lockedSource.Number, document, "Outgoing Transfer", in.Amount, sourceBalance)
	}
	if client, ok := s.clientEmail(lockedDest.ClientID); ok {
		_ = s.sender.SendTransactionNotification(client.Email, client.FirstName, lockedDest.Number, document, "Incoming Transfer", credited, destBalance)
	}
	s.log.Infof("Transfer %s from %s to %s (%s)", in.Amount.StringFixed(2), lockedSource.Number, lockedDest.Number, document)
	return t, nil
}
