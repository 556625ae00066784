package model

import (
	"time"

	"railroad-api/internal/access"
)

type User struct {
	ID           string      `json:"id"`
	Pseudo       string      `json:"pseudo"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         access.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

type UserListData struct {
	Users []User `json:"users"`
}

type LoginData struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int64  `json:"expires_in"`
	User      User   `json:"user"`
}
