package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card kinds and states.
const (
	CardCredit = "credit"
	CardDebit  = "debit"

	CardActive  = "active"
	CardBlocked = "blocked"
)

// Card request lifecycle.
const (
	CardRequestPending  = "pending"
	CardRequestApproved = "approved"
	CardRequestRejected = "rejected"
)

// Card represents a bank card. Number and ExpiryDate are stored encrypted
// and decrypted only for responses; the CVV is stored as a bcrypt hash.
type Card struct {
	ID            int64            `json:"id"`
	AccountID     int64            `json:"account_id"`
	Number        string           `json:"number"` // Decrypted for response
	Type          string           `json:"type"`
	HolderName    string           `json:"holder_name"`
	IssuedAt      time.Time        `json:"issued_at"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"` // Set on approval
	State         string           `json:"state"`
	RequestStatus string           `json:"request_status"`
	CreditLimit   *decimal.Decimal `json:"credit_limit,omitempty"`
	CVVHash       string           `json:"-"` // Not serialized
	HMAC          string           `json:"hmac"`
}

// TempCVV is a five-minute card verification code handed to the holder.
type TempCVV struct {
	ID        int64     `json:"id"`
	CardID    int64     `json:"card_id"`
	CVV       string    `json:"cvv"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
