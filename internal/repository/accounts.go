package repository

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/models"
)

const accountColumns = `id, client_id, number, type, initial_balance, balance, currency_id, status, created_at`

func scanAccount(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.ClientID, &account.Number, &account.Type,
		&account.InitialBalance, &account.Balance, &account.CurrencyID, &account.Status, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(account *models.Account) error {
	query := `
		INSERT INTO bank.accounts (client_id, number, type, initial_balance, balance, currency_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRow(query, account.ClientID, account.Number, account.Type,
		account.InitialBalance, account.Balance, account.CurrencyID, account.Status).
		Scan(&account.ID, &account.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// AccountExists reports whether the client already holds an account of this
// type and currency (at most one is allowed).
func (r *Repository) AccountExists(clientID int64, accountType, currencyID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM bank.accounts WHERE client_id = $1 AND type = $2 AND currency_id = $3)`,
		clientID, accountType, currencyID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account: %w", err)
	}
	return exists, nil
}

// NextNumberSeq returns the next sequence value for numbers starting with
// prefix (account or document numbers).
func (r *Repository) NextNumberSeq(table, prefix string) (int64, error) {
	var count int64
	var query string
	switch table {
	case "accounts":
		query = `SELECT COUNT(*) FROM bank.accounts WHERE number LIKE $1`
	case "transactions":
		query = `SELECT COUNT(*) FROM bank.transactions WHERE document_number LIKE $1`
	default:
		return 0, fmt.Errorf("unknown sequence table %q", table)
	}
	if err := r.db.QueryRow(query, prefix+"%").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s numbers: %w", table, err)
	}
	return count + 1, nil
}

// FindAccountByID retrieves an account by id
func (r *Repository) FindAccountByID(id int64) (*models.Account, error) {
	return scanAccount(r.db.QueryRow(`SELECT `+accountColumns+` FROM bank.accounts WHERE id = $1`, id))
}

// FindAccountByNumber retrieves an account by its public number
func (r *Repository) FindAccountByNumber(number string) (*models.Account, error) {
	return scanAccount(r.db.QueryRow(`SELECT `+accountColumns+` FROM bank.accounts WHERE number = $1`, number))
}

// FindAccountForUpdate locks the account row for the duration of tx.
// Balance mutations go through this so concurrent movements serialize.
func (r *Repository) FindAccountForUpdate(tx *sql.Tx, number string) (*models.Account, error) {
	account := &models.Account{}
	err := tx.QueryRow(`SELECT `+accountColumns+` FROM bank.accounts WHERE number = $1 FOR UPDATE`, number).
		Scan(&account.ID, &account.ClientID, &account.Number, &account.Type,
			&account.InitialBalance, &account.Balance, &account.CurrencyID, &account.Status, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// FindAccountByIDForUpdate locks the account row by id inside tx
func (r *Repository) FindAccountByIDForUpdate(tx *sql.Tx, id int64) (*models.Account, error) {
	account := &models.Account{}
	err := tx.QueryRow(`SELECT `+accountColumns+` FROM bank.accounts WHERE id = $1 FOR UPDATE`, id).
		Scan(&account.ID, &account.ClientID, &account.Number, &account.Type,
			&account.InitialBalance, &account.Balance, &account.CurrencyID, &account.Status, &account.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}
	return account, nil
}

// UpdateAccountBalance writes the new balance inside tx
func (r *Repository) UpdateAccountBalance(tx *sql.Tx, accountID int64, balance decimal.Decimal) error {
	if _, err := tx.Exec(`UPDATE bank.accounts SET balance = $1 WHERE id = $2`, balance, accountID); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// ListAccounts returns the client's accounts, optionally filtered
func (r *Repository) ListAccounts(clientID int64, filter models.AccountFilter) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM bank.accounts WHERE client_id = $1`
	args := []interface{}{clientID}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.CurrencyID != nil {
		args = append(args, *filter.CurrencyID)
		query += fmt.Sprintf(" AND currency_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY id"

	return r.queryAccounts(query, args...)
}

// ListAllAccounts returns every account, for the support module
func (r *Repository) ListAllAccounts() ([]models.Account, error) {
	return r.queryAccounts(`SELECT ` + accountColumns + ` FROM bank.accounts ORDER BY id`)
}

func (r *Repository) queryAccounts(query string, args ...interface{}) ([]models.Account, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.ClientID, &a.Number, &a.Type,
			&a.InitialBalance, &a.Balance, &a.CurrencyID, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// SetAccountStatus changes one account's status by number
func (r *Repository) SetAccountStatus(number string, status int) error {
	res, err := r.db.Exec(`UPDATE bank.accounts SET status = $1 WHERE number = $2`, status, number)
	if err != nil {
		return fmt.Errorf("failed to set account status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAccountsStatusByClient changes the status of all of a client's accounts
func (r *Repository) SetAccountsStatusByClient(clientID int64, status int) error {
	if _, err := r.db.Exec(`UPDATE bank.accounts SET status = $1 WHERE client_id = $2`, status, clientID); err != nil {
		return fmt.Errorf("failed to set accounts status: %w", err)
	}
	return nil
}

// CreateTransaction inserts a transaction row inside tx
func (r *Repository) CreateTransaction(tx *sql.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO bank.transactions (document_number, date, source_account, dest_account, type, amount, description)
		VALUES ($1, CURRENT_TIMESTAMP, $2, $3, $4, $5, $6)
		RETURNING id, date`
	err := tx.QueryRow(query, t.DocumentNumber, t.SourceAccount, t.DestAccount, t.Type, t.Amount, t.Description).
		Scan(&t.ID, &t.Date)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// CreateHistoryEntry inserts a per-account running-balance line inside tx
func (r *Repository) CreateHistoryEntry(tx *sql.Tx, h *models.HistoryEntry) error {
	query := `
		INSERT INTO bank.history (account_id, transaction_id, document_number, date, amount, balance)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, $4, $5)
		RETURNING id, date`
	err := tx.QueryRow(query, h.AccountID, h.TransactionID, h.DocumentNumber, h.Amount, h.Balance).
		Scan(&h.ID, &h.Date)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}
