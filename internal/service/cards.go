package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
	"github.com/marlonmr/banco-mr/internal/utils"
)

const (
	cardNumberPrefix = "400000"
	cardNumberLength = 16
	tempCVVLifetime  = 5 * time.Minute
)

// RequestCardInput describes a new card request.
type RequestCardInput struct {
	AccountNumber string `json:"account_number"`
	Type          string `json:"type"`
	HolderName    string `json:"holder_name"`
}

// CardResponse is the decrypted view of a card returned to the holder. The
// CVV appears only here, once, right after issuance.
type CardResponse struct {
	ID            int64            `json:"id"`
	AccountID     int64            `json:"account_id"`
	Number        string           `json:"number"`
	Type          string           `json:"type"`
	HolderName    string           `json:"holder_name"`
	State         string           `json:"state"`
	RequestStatus string           `json:"request_status"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
	CreditLimit   *decimal.Decimal `json:"credit_limit,omitempty"`
	CVV           string           `json:"cvv,omitempty"`
	CVVExpiresAt  *time.Time       `json:"cvv_expires_at,omitempty"`
}

// RequestCard registers a pending card request against one of the client's
// accounts. The number is generated and stored encrypted, the CVV is bcrypt
// hashed, and a five-minute plaintext CVV is handed back to the holder. The
// card desk is notified by mail.
func (s *Service) RequestCard(ctx context.Context, in RequestCardInput) (*CardResponse, error) {
	user, err := s.currentClient(ctx)
	if err != nil {
		return nil, err
	}
	if in.Type != models.CardCredit && in.Type != models.CardDebit {
		return nil, fmt.Errorf("%w: unknown card type %q", ErrValidation, in.Type)
	}
	if in.HolderName == "" {
		return nil, fmt.Errorf("%w: holder name is required", ErrValidation)
	}

	account, err := s.repo.FindAccountByNumber(in.AccountNumber)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: account not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if account.ClientID != user.ClientID {
		return nil, fmt.Errorf("%w: account does not belong to the client", ErrForbidden)
	}
	if account.Status != models.AccountActive {
		return nil, fmt.Errorf("%w: account is inactive", ErrValidation)
	}

	number, err := utils.GenerateCardNumber(cardNumberPrefix, cardNumberLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate card number: %w", err)
	}
	cvv := utils.GenerateCVV()

	encrypted, err := utils.Encrypt(number, []byte(s.config.EncryptionKey))
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt card number: %w", err)
	}
	cvvHash, err := bcrypt.GenerateFromPassword([]byte(cvv), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash cvv: %w", err)
	}

	card := &models.Card{
		AccountID:     account.ID,
		Number:        encrypted,
		Type:          in.Type,
		HolderName:    in.HolderName,
		State:         models.CardActive,
		RequestStatus: models.CardRequestPending,
		CVVHash:       string(cvvHash),
		HMAC:          utils.GenerateHMAC(number, "", cvv, s.config.HMACSecret),
	}
	if err := s.repo.CreateCard(card); err != nil {
		return nil, err
	}

	expires := s.now().Add(tempCVVLifetime)
	if err := s.repo.CreateTempCVV(&models.TempCVV{CardID: card.ID, CVV: cvv, ExpiresAt: expires}); err != nil {
		return nil, err
	}

	_ = s.sender.SendCardRequestNotice(user.Username, in.Type, in.HolderName, account.ID)
	s.log.Infof("Card requested for account %s (card %d)", account.Number, card.ID)

	return &CardResponse{
		ID:            card.ID,
		AccountID:     card.AccountID,
		Number:        number,
		Type:          card.Type,
		HolderName:    card.HolderName,
		State:         card.State,
		RequestStatus: card.RequestStatus,
		CVV:           cvv,
		CVVExpiresAt:  &expires,
	}, nil
}

// ListCards returns the caller's approved cards decrypted, or every request
// (numbers still encrypted) for administrators.
func (s *Service) ListCards(ctx context.Context) ([]CardResponse, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	var cards []models.Card
	if user.Role == models.RoleAdmin {
		cards, err = s.repo.ListAllCards()
	} else {
		cards, err = s.repo.ListCardsByClient(user.ClientID)
	}
	if err != nil {
		return nil, err
	}

	responses := make([]CardResponse, 0, len(cards))
	for _, card := range cards {
		number := card.Number
		if user.Role != models.RoleAdmin {
			number, err = utils.Decrypt(card.Number, []byte(s.config.EncryptionKey))
			if err != nil {
				s.log.Errorf("Failed to decrypt card %d: %v", card.ID, err)
				continue
			}
		}
		responses = append(responses, CardResponse{
			ID:            card.ID,
			AccountID:     card.AccountID,
			Number:        number,
			Type:          card.Type,
			HolderName:    card.HolderName,
			State:         card.State,
			RequestStatus: card.RequestStatus,
			ExpiryDate:    card.ExpiryDate,
			CreditLimit:   card.CreditLimit,
		})
	}
	return responses, nil
}

// TempCVV hands the holder a short-lived CVV for online use. An unexpired
// code is reused; otherwise a fresh one is minted and its bcrypt hash
// replaces the stored one.
func (s *Service) TempCVV(ctx context.Context, cardID int64) (*models.TempCVV, error) {
	card, err := s.ownedCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.RequestStatus != models.CardRequestApproved {
		return nil, fmt.Errorf("%w: card request is not approved", ErrConflict)
	}
	if card.State != models.CardActive {
		return nil, fmt.Errorf("%w: card is blocked", ErrConflict)
	}

	now := s.now()
	if live, err := s.repo.LiveTempCVV(cardID, now); err == nil {
		return live, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	cvv := &models.TempCVV{
		CardID:    cardID,
		CVV:       utils.GenerateCVV(),
		ExpiresAt: now.Add(tempCVVLifetime),
	}
	if err := s.repo.CreateTempCVV(cvv); err != nil {
		return nil, err
	}
	return cvv, nil
}

// BlockCard blocks the holder's card and notifies them.
func (s *Service) BlockCard(ctx context.Context, cardID int64) error {
	return s.setCardState(ctx, cardID, models.CardBlocked)
}

// UnblockCard reactivates a blocked card.
func (s *Service) UnblockCard(ctx context.Context, cardID int64) error {
	return s.setCardState(ctx, cardID, models.CardActive)
}

func (s *Service) setCardState(ctx context.Context, cardID int64, state string) error {
	card, err := s.ownedCard(ctx, cardID)
	if err != nil {
		return err
	}
	if card.State == state {
		return fmt.Errorf("%w: card is already %s", ErrConflict, state)
	}
	if err := s.repo.SetCardState(cardID, state); err != nil {
		return err
	}

	account, err := s.repo.FindAccountByID(card.AccountID)
	if err == nil {
		if client, ok := s.clientEmail(account.ClientID); ok {
			_ = s.sender.SendCardStateNotice(client.Email, client.FirstName, s.maskedCardNumber(card), state == models.CardBlocked)
		}
	}
	s.log.Infof("Card %d set to %s", cardID, state)
	return nil
}

// ProcessCardRequestInput is the administrator's decision on a request.
type ProcessCardRequestInput struct {
	CardID      int64            `json:"card_id"`
	Approve     bool             `json:"approve"`
	CreditLimit *decimal.Decimal `json:"credit_limit,omitempty"`
	ExpiryDate  *time.Time       `json:"expiry_date,omitempty"`
}

// ProcessCardRequest approves or rejects a pending card request. Approval
// requires a credit limit; a missing expiry date defaults to the standard
// card validity from the decision date.
func (s *Service) ProcessCardRequest(ctx context.Context, in ProcessCardRequestInput) error {
	if _, err := s.currentAdmin(ctx); err != nil {
		return err
	}

	card, err := s.repo.FindCardByID(in.CardID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: card not found", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if card.RequestStatus != models.CardRequestPending {
		return fmt.Errorf("%w: card request is already %s", ErrConflict, card.RequestStatus)
	}

	if !in.Approve {
		if err := s.repo.RejectCardRequest(in.CardID); err != nil {
			return err
		}
		s.log.Infof("Card request %d rejected", in.CardID)
		return nil
	}

	if in.CreditLimit == nil {
		return fmt.Errorf("%w: approval requires a credit limit", ErrValidation)
	}
	if in.CreditLimit.IsNegative() {
		return fmt.Errorf("%w: credit limit must not be negative", ErrValidation)
	}
	expiry := utils.DefaultCardExpiry(s.now())
	if in.ExpiryDate != nil {
		expiry = *in.ExpiryDate
	}
	if err := s.repo.ApproveCardRequest(in.CardID, *in.CreditLimit, expiry); err != nil {
		return err
	}
	s.log.Infof("Card request %d approved", in.CardID)
	return nil
}

// ownedCard loads a card and verifies the caller owns the backing account.
// Admins bypass the ownership check.
func (s *Service) ownedCard(ctx context.Context, cardID int64) (*models.Card, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	card, err := s.repo.FindCardByID(cardID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: card not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return card, nil
	}

	account, err := s.repo.FindAccountByID(card.AccountID)
	if err != nil {
		return nil, err
	}
	if account.ClientID != user.ClientID {
		return nil, fmt.Errorf("%w: card does not belong to the client", ErrForbidden)
	}
	return card, nil
}

// maskedCardNumber decrypts the stored number and keeps only the last four
// digits for notifications.
func (s *Service) maskedCardNumber(card *models.Card) string {
	number, err := utils.Decrypt(card.Number, []byte(s.config.EncryptionKey))
	if err != nil || len(number) < 4 {
		return "**** **** **** ****"
	}
	return "**** **** **** " + number[len(number)-4:]
}
