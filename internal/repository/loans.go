package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/loan"
	"github.com/marlonmr/banco-mr/internal/models"
)

// ListLoanProducts returns the loan product catalog
func (r *Repository) ListLoanProducts() ([]models.LoanProduct, error) {
	rows, err := r.db.Query(`
		SELECT id, installments, annual_rate_percent, arrears_rate_percent, description
		FROM bank.loan_products
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loan products: %w", err)
	}
	defer rows.Close()

	var products []models.LoanProduct
	for rows.Next() {
		var p models.LoanProduct
		if err := rows.Scan(&p.ID, &p.Installments, &p.AnnualRatePercent, &p.ArrearsRatePercent, &p.Description); err != nil {
			return nil, fmt.Errorf("failed to scan loan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// FindLoanProduct retrieves one product
func (r *Repository) FindLoanProduct(id int64) (*models.LoanProduct, error) {
	p := &models.LoanProduct{}
	err := r.db.QueryRow(`
		SELECT id, installments, annual_rate_percent, arrears_rate_percent, description
		FROM bank.loan_products
		WHERE id = $1`, id).
		Scan(&p.ID, &p.Installments, &p.AnnualRatePercent, &p.ArrearsRatePercent, &p.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan product: %w", err)
	}
	return p, nil
}

// NextLoanSeq returns the next loan number sequence
func (r *Repository) NextLoanSeq() (int64, error) {
	var maxID sql.NullInt64
	if err := r.db.QueryRow(`SELECT MAX(id) FROM bank.loans`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to read loan sequence: %w", err)
	}
	return maxID.Int64 + 1, nil
}

// CreateLoan inserts the loan header inside tx
func (r *Repository) CreateLoan(tx *sql.Tx, l *models.Loan) error {
	query := `
		INSERT INTO bank.loans (client_id, product_id, account_id, number, amount, balance, currency_id, status, requested_at, maturity_date, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := tx.QueryRow(query, l.ClientID, l.ProductID, l.AccountID, l.Number,
		l.Amount, l.Balance, l.CurrencyID, l.Status, l.RequestedAt, l.MaturityDate, l.Note).
		Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// CreateInstallments inserts a generated schedule inside tx, all or nothing
func (r *Repository) CreateInstallments(tx *sql.Tx, loanID int64, installments []loan.Installment) error {
	stmt, err := tx.Prepare(`
		INSERT INTO bank.installments (loan_id, sequence, due_date, capital, interest, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("failed to prepare installment insert: %w", err)
	}
	defer stmt.Close()

	for _, inst := range installments {
		if _, err := stmt.Exec(loanID, inst.Sequence, inst.DueDate, inst.Capital, inst.Interest, inst.Total, inst.Status); err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", inst.Sequence, err)
		}
	}
	return nil
}

const loanColumns = `id, client_id, product_id, account_id, number, amount, balance, currency_id, status, requested_at, decided_at, maturity_date, note`

func scanLoan(scan func(dest ...interface{}) error) (*models.Loan, error) {
	l := &models.Loan{}
	var decidedAt sql.NullTime
	err := scan(&l.ID, &l.ClientID, &l.ProductID, &l.AccountID, &l.Number,
		&l.Amount, &l.Balance, &l.CurrencyID, &l.Status, &l.RequestedAt, &decidedAt, &l.MaturityDate, &l.Note)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find loan: %w", err)
	}
	if decidedAt.Valid {
		l.DecidedAt = &decidedAt.Time
	}
	return l, nil
}

// FindLoanByNumber retrieves a loan header
func (r *Repository) FindLoanByNumber(number string) (*models.Loan, error) {
	row := r.db.QueryRow(`SELECT `+loanColumns+` FROM bank.loans WHERE number = $1`, number)
	return scanLoan(row.Scan)
}

// ListLoansByClient returns all of a client's loans, newest first
func (r *Repository) ListLoansByClient(clientID int64) ([]models.Loan, error) {
	rows, err := r.db.Query(`SELECT `+loanColumns+` FROM bank.loans WHERE client_id = $1 ORDER BY id DESC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		l, err := scanLoan(rows.Scan)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

// FindLoanForUpdate locks the loan header row inside tx. Concurrent
// payments against the same loan queue up here instead of double-applying
// against the same installments.
func (r *Repository) FindLoanForUpdate(tx *sql.Tx, number string) (*models.Loan, error) {
	row := tx.QueryRow(`SELECT `+loanColumns+` FROM bank.loans WHERE number = $1 FOR UPDATE`, number)
	return scanLoan(row.Scan)
}

// SetLoanDecision stamps the approval or rejection inside tx
func (r *Repository) SetLoanDecision(tx *sql.Tx, loanID int64, status string, decidedAt time.Time) error {
	if _, err := tx.Exec(`UPDATE bank.loans SET status = $1, decided_at = $2 WHERE id = $3`, status, decidedAt, loanID); err != nil {
		return fmt.Errorf("failed to set loan decision: %w", err)
	}
	return nil
}

// UpdateLoanBalance writes the remaining principal inside tx
func (r *Repository) UpdateLoanBalance(tx *sql.Tx, loanID int64, balance decimal.Decimal) error {
	if _, err := tx.Exec(`UPDATE bank.loans SET balance = $1 WHERE id = $2`, balance, loanID); err != nil {
		return fmt.Errorf("failed to update loan balance: %w", err)
	}
	return nil
}

const installmentColumns = `id, loan_id, sequence, due_date, capital, interest, total, status, settled_date, settlement_ref`

func scanInstallments(rows *sql.Rows) ([]models.Installment, error) {
	var installments []models.Installment
	for rows.Next() {
		var inst models.Installment
		var settledDate sql.NullTime
		var settlementRef sql.NullString
		if err := rows.Scan(&inst.ID, &inst.LoanID, &inst.Sequence, &inst.DueDate,
			&inst.Capital, &inst.Interest, &inst.Total, &inst.Status, &settledDate, &settlementRef); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		if settledDate.Valid {
			inst.SettledDate = &settledDate.Time
		}
		inst.SettlementRef = settlementRef.String
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

// ListInstallments returns the full stored schedule, ordered by sequence
func (r *Repository) ListInstallments(loanID int64) ([]models.Installment, error) {
	rows, err := r.db.Query(`SELECT `+installmentColumns+` FROM bank.installments WHERE loan_id = $1 ORDER BY sequence`, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()
	return scanInstallments(rows)
}

// OutstandingInstallmentsForUpdate loads the unpaid installments in
// sequence order and locks them for the duration of tx.
func (r *Repository) OutstandingInstallmentsForUpdate(tx *sql.Tx, loanID int64) ([]models.Installment, error) {
	rows, err := tx.Query(`
		SELECT `+installmentColumns+`
		FROM bank.installments
		WHERE loan_id = $1 AND status = $2
		ORDER BY sequence
		FOR UPDATE`, loanID, loan.StatusOutstanding)
	if err != nil {
		return nil, fmt.Errorf("failed to lock installments: %w", err)
	}
	defer rows.Close()
	return scanInstallments(rows)
}

// UpdateInstallmentSettlement persists the allocator's mutation of one
// installment inside tx.
func (r *Repository) UpdateInstallmentSettlement(tx *sql.Tx, inst *models.Installment) error {
	_, err := tx.Exec(`
		UPDATE bank.installments
		SET status = $1, settled_date = $2, settlement_ref = $3
		WHERE id = $4`,
		inst.Status, inst.SettledDate, nullString(inst.SettlementRef), inst.ID)
	if err != nil {
		return fmt.Errorf("failed to update installment %d: %w", inst.Sequence, err)
	}
	return nil
}

// NextPaymentSeq returns the next per-year payment document sequence
func (r *Repository) NextPaymentSeq(year int) (int64, error) {
	var count int64
	err := r.db.QueryRow(`SELECT COUNT(*) FROM bank.payment_receipts WHERE document LIKE $1`,
		fmt.Sprintf("PAG%d%%", year)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to read payment sequence: %w", err)
	}
	return count + 1, nil
}

// CreatePaymentReceipt inserts the payment header inside tx
func (r *Repository) CreatePaymentReceipt(tx *sql.Tx, receipt *models.PaymentReceipt) error {
	query := `
		INSERT INTO bank.payment_receipts
			(document, date, loan_id, method, installments_paid, description,
			 capital_applied, interest_applied, late_fee_applied, total_applied, unapplied_returned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	err := tx.QueryRow(query, receipt.Document, receipt.Date, receipt.LoanID, receipt.Method,
		receipt.InstallmentsPaid, receipt.Description, receipt.CapitalApplied, receipt.InterestApplied,
		receipt.LateFeeApplied, receipt.TotalApplied, receipt.UnappliedReturned).
		Scan(&receipt.ID)
	if err != nil {
		return fmt.Errorf("failed to create payment receipt: %w", err)
	}
	return nil
}

// CreatePaymentReceiptItems inserts the per-installment lines inside tx
func (r *Repository) CreatePaymentReceiptItems(tx *sql.Tx, items []models.PaymentReceiptItem) error {
	stmt, err := tx.Prepare(`
		INSERT INTO bank.payment_receipt_items
			(receipt_id, loan_id, installment_id, sequence, capital_applied, interest_applied, late_fee_applied, total_applied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("failed to prepare receipt item insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.Exec(item.ReceiptID, item.LoanID, item.InstallmentID, item.Sequence,
			item.CapitalApplied, item.InterestApplied, item.LateFeeApplied, item.TotalApplied); err != nil {
			return fmt.Errorf("failed to insert receipt item %d: %w", item.Sequence, err)
		}
	}
	return nil
}

// ReminderRow is one upcoming or overdue installment with the contact
// details the reminder job needs.
type ReminderRow struct {
	Email       string
	FirstName   string
	LoanNumber  string
	DueDate     time.Time
	Total       decimal.Decimal
	ArrearsRate decimal.Decimal
}

// DueInstallments lists outstanding installments of approved loans due on
// or before the horizon, joined with client contact data.
func (r *Repository) DueInstallments(horizon time.Time) ([]ReminderRow, error) {
	rows, err := r.db.Query(`
		SELECT c.email, c.first_name, l.number, i.due_date, i.total, p.arrears_rate_percent
		FROM bank.installments i
		JOIN bank.loans l ON l.id = i.loan_id
		JOIN bank.loan_products p ON p.id = l.product_id
		JOIN bank.clients c ON c.id = l.client_id
		WHERE i.status = $1 AND l.status = $2 AND i.due_date <= $3
		ORDER BY i.due_date`, loan.StatusOutstanding, models.LoanApproved, horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to list due installments: %w", err)
	}
	defer rows.Close()

	var reminders []ReminderRow
	for rows.Next() {
		var row ReminderRow
		if err := rows.Scan(&row.Email, &row.FirstName, &row.LoanNumber, &row.DueDate, &row.Total, &row.ArrearsRate); err != nil {
			return nil, fmt.Errorf("failed to scan reminder row: %w", err)
		}
		reminders = append(reminders, row)
	}
	return reminders, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
