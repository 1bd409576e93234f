// Copyright (c) 2026 Readstack. All rights reserved.

/*
Package auth implements the identity layer of the Readstack platform.

It handles user registration, credential verification, and access-token
issuance on top of the shared unit-of-work storage layer.

Architecture:

  - Service: Orchestrates the Register, Login, and Me use cases.
  - TokenProvider: Abstracts JWT signing so the service stays testable.
  - Storage: Accounts live in PostgreSQL behind [store.Factory].
*/
package auth

import (
	"time"

	"github.com/readstack/readstack/internal/store"
)

// # Inputs & Outputs

// RegisterInput holds the data required to enroll a new user.
type RegisterInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput identifies an account by email or username.
type LoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// UserResponse is the public representation of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// toResponse maps a stored account onto the public shape.
func toResponse(user *store.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

// # Field Identifiers

// Global field names for validation in the authentication domain.
const (
	FieldEmail    = "email"
	FieldUsername = "username"
	FieldPassword = "password"
	FieldLogin    = "login"
)
