package models

import "time"

// Client is the person behind one or more users and accounts.
type Client struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	MiddleName     string    `json:"middle_name,omitempty"`
	LastName       string    `json:"last_name"`
	SecondLastName string    `json:"second_last_name,omitempty"`
	DocumentID     string    `json:"document_id"` // national id, unique
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email"`
	Address        string    `json:"address,omitempty"`
	RegisteredAt   time.Time `json:"registered_at"`
}
