package models

import "time"

// User is the persisted identity record. PasswordHash is never serialized
// and is only populated by the WithHash store queries.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserRef is the expanded sender/recipient view embedded in items.
type UserRef struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BasicUser is the directory entry exposed by GET /api/auth/users.
type BasicUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
