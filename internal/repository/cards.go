package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marlonmr/banco-mr/internal/models"
)

const cardColumns = `id, account_id, number_enc, type, holder_name, issued_at, expiry_date, state, request_status, credit_limit, cvv_hash, hmac`

func scanCard(scan func(dest ...interface{}) error) (*models.Card, error) {
	card := &models.Card{}
	var expiry sql.NullTime
	var limit decimal.NullDecimal
	err := scan(&card.ID, &card.AccountID, &card.Number, &card.Type, &card.HolderName,
		&card.IssuedAt, &expiry, &card.State, &card.RequestStatus, &limit, &card.CVVHash, &card.HMAC)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	if expiry.Valid {
		card.ExpiryDate = &expiry.Time
	}
	if limit.Valid {
		card.CreditLimit = &limit.Decimal
	}
	return card, nil
}

// CreateCard stores a card request with encrypted fields
func (r *Repository) CreateCard(card *models.Card) error {
	query := `
		INSERT INTO bank.cards (account_id, number_enc, type, holder_name, issued_at, state, request_status, cvv_hash, hmac)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, $5, $6, $7, $8)
		RETURNING id, issued_at`
	err := r.db.QueryRow(query, card.AccountID, card.Number, card.Type, card.HolderName,
		card.State, card.RequestStatus, card.CVVHash, card.HMAC).
		Scan(&card.ID, &card.IssuedAt)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// FindCardByID retrieves a card
func (r *Repository) FindCardByID(id int64) (*models.Card, error) {
	row := r.db.QueryRow(`SELECT `+cardColumns+` FROM bank.cards WHERE id = $1`, id)
	return scanCard(row.Scan)
}

func (r *Repository) queryCards(query string, args ...interface{}) ([]models.Card, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// ListCardsByClient returns the client's approved cards
func (r *Repository) ListCardsByClient(clientID int64) ([]models.Card, error) {
	return r.queryCards(`
		SELECT `+cardPrefixed("c")+`
		FROM bank.cards c
		JOIN bank.accounts a ON a.id = c.account_id
		WHERE a.client_id = $1 AND c.request_status = $2
		ORDER BY c.id`, clientID, models.CardRequestApproved)
}

// ListAllCards returns every card request, for administrators
func (r *Repository) ListAllCards() ([]models.Card, error) {
	return r.queryCards(`SELECT ` + cardColumns + ` FROM bank.cards ORDER BY id`)
}

func cardPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.account_id, ` + alias + `.number_enc, ` + alias + `.type, ` +
		alias + `.holder_name, ` + alias + `.issued_at, ` + alias + `.expiry_date, ` + alias + `.state, ` +
		alias + `.request_status, ` + alias + `.credit_limit, ` + alias + `.cvv_hash, ` + alias + `.hmac`
}

// SetCardState blocks or unblocks a card
func (r *Repository) SetCardState(cardID int64, state string) error {
	res, err := r.db.Exec(`UPDATE bank.cards SET state = $1 WHERE id = $2`, state, cardID)
	if err != nil {
		return fmt.Errorf("failed to set card state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApproveCardRequest stamps the approved limit and expiry
func (r *Repository) ApproveCardRequest(cardID int64, creditLimit decimal.Decimal, expiry time.Time) error {
	res, err := r.db.Exec(`
		UPDATE bank.cards SET request_status = $1, credit_limit = $2, expiry_date = $3 WHERE id = $4`,
		models.CardRequestApproved, creditLimit, expiry, cardID)
	if err != nil {
		return fmt.Errorf("failed to approve card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RejectCardRequest marks the request rejected
func (r *Repository) RejectCardRequest(cardID int64) error {
	res, err := r.db.Exec(`UPDATE bank.cards SET request_status = $1 WHERE id = $2`, models.CardRequestRejected, cardID)
	if err != nil {
		return fmt.Errorf("failed to reject card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTempCVV stores a short-lived CVV
func (r *Repository) CreateTempCVV(cvv *models.TempCVV) error {
	query := `
		INSERT INTO bank.card_cvv_temp (card_id, cvv, created_at, expires_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP, $3)
		RETURNING id, created_at`
	if err := r.db.QueryRow(query, cvv.CardID, cvv.CVV, cvv.ExpiresAt).Scan(&cvv.ID, &cvv.CreatedAt); err != nil {
		return fmt.Errorf("failed to create temp cvv: %w", err)
	}
	return nil
}

// LiveTempCVV returns the newest unexpired CVV for a card, if any
func (r *Repository) LiveTempCVV(cardID int64, now time.Time) (*models.TempCVV, error) {
	cvv := &models.TempCVV{}
	err := r.db.QueryRow(`
		SELECT id, card_id, cvv, created_at, expires_at
		FROM bank.card_cvv_temp
		WHERE card_id = $1 AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`, cardID, now).
		Scan(&cvv.ID, &cvv.CardID, &cvv.CVV, &cvv.CreatedAt, &cvv.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find temp cvv: %w", err)
	}
	return cvv, nil
}
