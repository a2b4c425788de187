package repository

import (
	"database/sql"
	"fmt"

	"github.com/marlonmr/banco-mr/internal/models"
)

// CreateClient creates a new client in the database
func (r *Repository) CreateClient(client *models.Client) error {
	query := `
		INSERT INTO bank.clients (first_name, middle_name, last_name, second_last_name, document_id, phone, email, address, registered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		RETURNING id, registered_at`
	err := r.db.QueryRow(query,
		client.FirstName, client.MiddleName, client.LastName, client.SecondLastName,
		client.DocumentID, client.Phone, client.Email, client.Address).
		Scan(&client.ID, &client.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// FindClientByID retrieves a client by id
func (r *Repository) FindClientByID(id int64) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, first_name, middle_name, last_name, second_last_name, document_id, phone, email, address, registered_at
		FROM bank.clients
		WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&client.ID, &client.FirstName, &client.MiddleName, &client.LastName, &client.SecondLastName,
		&client.DocumentID, &client.Phone, &client.Email, &client.Address, &client.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

// FindClientByEmailAndDocument matches a client by both identifiers, used
// for password-reset identity checks.
func (r *Repository) FindClientByEmailAndDocument(email, documentID string) (*models.Client, error) {
	client := &models.Client{}
	query := `
		SELECT id, first_name, middle_name, last_name, second_last_name, document_id, phone, email, address, registered_at
		FROM bank.clients
		WHERE email = $1 AND document_id = $2`
	err := r.db.QueryRow(query, email, documentID).Scan(
		&client.ID, &client.FirstName, &client.MiddleName, &client.LastName, &client.SecondLastName,
		&client.DocumentID, &client.Phone, &client.Email, &client.Address, &client.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find client: %w", err)
	}
	return client, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO bank.users (username, password_hash, role, status, client_id, registered_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING id, registered_at`
	err := r.db.QueryRow(query, user.Username, user.PasswordHash, user.Role, user.Status, user.ClientID).
		Scan(&user.ID, &user.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role, &user.Status, &user.ClientID, &user.RegisteredAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, status, client_id, registered_at
		FROM bank.users
		WHERE username = $1`
	return scanUser(r.db.QueryRow(query, username))
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(id int64) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, status, client_id, registered_at
		FROM bank.users
		WHERE id = $1`
	return scanUser(r.db.QueryRow(query, id))
}

// FindUserByClientID retrieves the user belonging to a client
func (r *Repository) FindUserByClientID(clientID int64) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role, status, client_id, registered_at
		FROM bank.users
		WHERE client_id = $1`
	return scanUser(r.db.QueryRow(query, clientID))
}

// UsernameExists reports whether a username is taken
func (r *Repository) UsernameExists(username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM bank.users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// UpdateUserPassword replaces a user's password hash
func (r *Repository) UpdateUserPassword(userID int64, passwordHash string) error {
	res, err := r.db.Exec(`UPDATE bank.users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserStatus activates or deactivates a user
func (r *Repository) SetUserStatus(userID int64, status int) error {
	res, err := r.db.Exec(`UPDATE bank.users SET status = $1 WHERE id = $2`, status, userID)
	if err != nil {
		return fmt.Errorf("failed to set user status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users, for the support module
func (r *Repository) ListUsers() ([]models.User, error) {
	rows, err := r.db.Query(`
		SELECT id, username, password_hash, role, status, client_id, registered_at
		FROM bank.users
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Status, &u.ClientID, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateResetToken stores a password-reset token
func (r *Repository) CreateResetToken(token *models.PasswordResetToken) error {
	query := `
		INSERT INTO bank.password_reset_tokens (user_id, token, expires_at, used)
		VALUES ($1, $2, $3, false)
		RETURNING id`
	if err := r.db.QueryRow(query, token.UserID, token.Token, token.ExpiresAt).Scan(&token.ID); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// FindResetToken retrieves a reset token by its value
func (r *Repository) FindResetToken(token string) (*models.PasswordResetToken, error) {
	t := &models.PasswordResetToken{}
	query := `
		SELECT id, user_id, token, expires_at, used
		FROM bank.password_reset_tokens
		WHERE token = $1`
	err := r.db.QueryRow(query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.Used)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find reset token: %w", err)
	}
	return t, nil
}

// MarkResetTokenUsed burns a reset token
func (r *Repository) MarkResetTokenUsed(id int64) error {
	if _, err := r.db.Exec(`UPDATE bank.password_reset_tokens SET used = true WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}
