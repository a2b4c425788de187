package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
)

// The support module is the administrator's back office: user and account
// state management that clients cannot touch themselves.

// ListUsers returns every user for the administration panel.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	if _, err := s.currentAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers()
}

// ListAllAccounts returns every account for the administration panel.
func (s *Service) ListAllAccounts(ctx context.Context) ([]models.Account, error) {
	if _, err := s.currentAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListAllAccounts()
}

// DeactivateUser disables a user's sign-in and all of their accounts.
func (s *Service) DeactivateUser(ctx context.Context, username string) error {
	return s.setUserStatus(ctx, username, models.UserInactive, models.AccountInactive)
}

// ReactivateUser restores a deactivated user and their accounts.
func (s *Service) ReactivateUser(ctx context.Context, username string) error {
	return s.setUserStatus(ctx, username, models.UserActive, models.AccountActive)
}

func (s *Service) setUserStatus(ctx context.Context, username string, userStatus, accountStatus int) error {
	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}
	if admin.Username == username {
		return fmt.Errorf("%w: administrators cannot change their own status", ErrValidation)
	}

	user, err := s.repo.FindUserByUsername(username)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	if err != nil {
		return err
	}

	if err := s.repo.SetUserStatus(user.ID, userStatus); err != nil {
		return err
	}
	if err := s.repo.SetAccountsStatusByClient(user.ClientID, accountStatus); err != nil {
		return err
	}

	s.log.Infof("User %s status set to %d by %s", username, userStatus, admin.Username)
	return nil
}

// SetAccountStatus activates or deactivates one account by number.
func (s *Service) SetAccountStatus(ctx context.Context, number string, status int) error {
	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}
	if status != models.AccountActive && status != models.AccountInactive {
		return fmt.Errorf("%w: unknown account status %d", ErrValidation, status)
	}

	if err := s.repo.SetAccountStatus(number, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: account not found", ErrNotFound)
		}
		return err
	}

	s.log.Infof("Account %s status set to %d by %s", number, status, admin.Username)
	return nil
}

// SetUserPassword force-resets a client's password. Admin passwords can only
// be changed by their owner through the regular change-password flow.
func (s *Service) SetUserPassword(ctx context.Context, username, newPassword string) error {
	admin, err := s.currentAdmin(ctx)
	if err != nil {
		return err
	}

	user, err := s.repo.FindUserByUsername(username)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if user.Role != models.RoleClient {
		return fmt.Errorf("%w: only client passwords can be reset here", ErrForbidden)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(user.ID, string(hashed)); err != nil {
		return err
	}

	s.log.Infof("Password reset for %s by %s", username, admin.Username)
	return nil
}
