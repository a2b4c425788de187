package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/marlonmr/banco-mr/internal/config"
	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
	"github.com/marlonmr/banco-mr/internal/utils/email"
)

// Service-level failure taxonomy. Handlers translate these into HTTP
// status codes; everything else is a 500.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrValidation         = errors.New("invalid request")
)

// Service handles business logic
type Service struct {
	repo   *repository.Repository
	sender *email.Sender
	log    *logrus.Logger
	config *config.Config
	now    func() time.Time
}

// NewService initializes a new service
func NewService(repo *repository.Repository, sender *email.Sender, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, sender: sender, log: log, config: cfg, now: time.Now}
}

// currentUser resolves the authenticated user from the request context
// populated by the auth middleware.
func (s *Service) currentUser(ctx context.Context) (*models.User, error) {
	userIDStr, ok := ctx.Value("userID").(string)
	if !ok || userIDStr == "" {
		return nil, fmt.Errorf("%w: user ID not found in context", ErrForbidden)
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID", ErrForbidden)
	}
	user, err := s.repo.FindUserByID(userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserActive {
		return nil, fmt.Errorf("%w: user is inactive", ErrForbidden)
	}
	return user, nil
}

// currentClient resolves the authenticated user and requires the client role.
func (s *Service) currentClient(ctx context.Context) (*models.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleClient {
		return nil, fmt.Errorf("%w: client role required", ErrForbidden)
	}
	return user, nil
}

// currentAdmin resolves the authenticated user and requires the admin role.
func (s *Service) currentAdmin(ctx context.Context) (*models.User, error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return user, nil
}

// clientEmail fetches a client's contact data for notifications. Errors are
// logged, never propagated: mail must not fail a committed operation.
func (s *Service) clientEmail(clientID int64) (*models.Client, bool) {
	client, err := s.repo.FindClientByID(clientID)
	if err != nil {
		s.log.Errorf("Failed to load client %d for notification: %v", clientID, err)
		return nil, false
	}
	return client, client.Email != ""
}
