package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/marlonmr/banco-mr/internal/models"
	"github.com/marlonmr/banco-mr/internal/repository"
)

// RegisterInput carries the new client's personal data.
type RegisterInput struct {
	FirstName      string `json:"first_name"`
	MiddleName     string `json:"middle_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	DocumentID     string `json:"document_id"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Role           string `json:"role"`
}

// Register creates a client plus their user. The username is derived from
// the client's name (first.last, with a numeric suffix on collision) and
// the initial password is generated and mailed, never returned.
func (s *Service) Register(in RegisterInput) (*models.User, error) {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.DocumentID == "" {
		return nil, fmt.Errorf("%w: first name, last name, email and document id are required", ErrValidation)
	}
	role := in.Role
	if role == "" {
		role = models.RoleClient
	}
	if role != models.RoleClient && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	client := &models.Client{
		FirstName:      in.FirstName,
		MiddleName:     in.MiddleName,
		LastName:       in.LastName,
		SecondLastName: in.SecondLastName,
		DocumentID:     in.DocumentID,
		Phone:          in.Phone,
		Email:          in.Email,
		Address:        in.Address,
	}
	if err := s.repo.CreateClient(client); err != nil {
		return nil, err
	}

	username, err := s.generateUsername(in.FirstName, in.LastName)
	if err != nil {
		return nil, err
	}

	rawPassword := uuid.NewString()[:12]
	hashed, err := bcrypt.GenerateFromPassword([]byte(rawPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       models.UserActive,
		ClientID:     client.ID,
	}
	if err := s.repo.CreateUser(user); err != nil {
		return nil, err
	}

	if err := s.sender.SendRegistrationCredentials(client.Email, client.FirstName, username, rawPassword); err != nil {
		return nil, fmt.Errorf("failed to deliver credentials: %w", err)
	}

	s.log.Infof("User registered: %s (client %d)", username, client.ID)
	return user, nil
}

func (s *Service) generateUsername(firstName, lastName string) (string, error) {
	base := strings.ToLower(firstName + "." + lastName)
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.repo.UsernameExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(username, password string) (string, error) {
	user, err := s.repo.FindUserByUsername(username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if user.Status != models.UserActive {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", user.ID),
		"role": user.Role,
		"exp":  jwt.NewNumericDate(s.now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Username)
	return tokenString, nil
}

// ChangePassword replaces the authenticated user's password after
// verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdateUserPassword(user.ID, string(hashed))
}

// RequestPasswordReset verifies email+document identity, stores a one-hour
// single-use token and mails the reset link.
func (s *Service) RequestPasswordReset(emailAddr, documentID string) error {
	client, err := s.repo.FindClientByEmailAndDocument(emailAddr, documentID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: client not found", ErrNotFound)
	}
	if err != nil {
		return err
	}
	user, err := s.repo.FindUserByClientID(client.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: user not found", ErrNotFound)
	}
	if err != nil {
		return err
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(time.Hour),
	}
	if err := s.repo.CreateResetToken(token); err != nil {
		return err
	}

	link := fmt.Sprintf("%s?token=%s", s.config.ResetBaseURL, token.Token)
	return s.sender.SendPasswordResetLink(emailAddr, link)
}

// ResetPassword consumes a reset token and sets the new password.
func (s *Service) ResetPassword(token, newPassword string) error {
	entry, err := s.repo.FindResetToken(token)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: token is invalid or expired", ErrValidation)
	}
	if err != nil {
		return err
	}
	if entry.Used || entry.ExpiresAt.Before(s.now()) {
		return fmt.Errorf("%w: token is invalid or expired", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdateUserPassword(entry.UserID, string(hashed)); err != nil {
		return err
	}
	return s.repo.MarkResetTokenUsed(entry.ID)
}
