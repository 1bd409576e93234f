// Copyright (c) 2026 Readstack. All rights reserved.

package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/readstack/readstack/internal/platform/apperr"
	"github.com/readstack/readstack/internal/platform/constants"
	"github.com/readstack/readstack/internal/platform/dberr"
	"github.com/readstack/readstack/internal/platform/sec"
	"github.com/readstack/readstack/internal/platform/validate"
	"github.com/readstack/readstack/internal/store"
)

// TokenProvider defines the contract for issuing access tokens.
type TokenProvider interface {
	GenerateAccessToken(userID, username, role string, timeToLive time.Duration) (string, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	store  store.Factory
	tokens TokenProvider
	logger *slog.Logger
}

// NewService constructs the auth [Service] with its dependencies.
func NewService(factory store.Factory, tokens TokenProvider, logger *slog.Logger) *Service {
	return &Service{
		store:  factory,
		tokens: tokens,
		logger: logger,
	}
}

// # Registration Flow

// Register enrolls a new user with the default role.
//
// Email and username must both be unique; which one collided is reported
// explicitly so the client can point at the right field.
func (service *Service) Register(ctx context.Context, input RegisterInput) (*UserResponse, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}

	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	if _, err := uow.Users().FindByEmail(ctx, input.Email); err == nil {
		return nil, apperr.Conflict("Email already registered")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	if _, err := uow.Users().FindByUsername(ctx, input.Username); err == nil {
		return nil, apperr.Conflict("Username already taken")
	} else if !dberr.IsNotFound(err) {
		return nil, err
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &store.User{
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: passwordHash,
		Role:         string(sec.RoleUser),
		IsActive:     true,
	}

	if err := uow.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, err
	}

	service.logger.Info("user_registered",
		slog.String("user_id", user.ID), slog.String("username", user.Username))

	return toResponse(user), nil
}

// # Login Flow

// Login verifies credentials and issues an access token.
//
// The login identifier may be an email or a username. Every rejection path
// returns the same error so the response cannot be used to probe accounts.
func (service *Service) Login(ctx context.Context, input LoginInput) (*TokenResponse, error) {
	if err := validateLogin(input); err != nil {
		return nil, err
	}

	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	user, err := uow.Users().FindByEmail(ctx, input.Login)
	if dberr.IsNotFound(err) {
		user, err = uow.Users().FindByUsername(ctx, input.Login)
	}
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	accessToken, err := service.tokens.GenerateAccessToken(
		user.ID, user.Username, user.Role, constants.AccessTokenTTL,
	)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	service.logger.Info("user_logged_in", slog.String("user_id", user.ID))

	return &TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int(constants.AccessTokenTTL.Seconds()),
	}, nil
}

// Me returns the account behind an authenticated request.
func (service *Service) Me(ctx context.Context, userID string) (*UserResponse, error) {
	uow, err := service.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer uow.Close(ctx)

	user, err := uow.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(user), nil
}

// # Validation

func validateRegister(input RegisterInput) error {
	validator := &validate.Validator{}

	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 50)
	validator.Required(FieldPassword, input.Password).MinLen(FieldPassword, input.Password, 8)

	return validator.Err()
}

func validateLogin(input LoginInput) error {
	validator := &validate.Validator{}

	validator.Required(FieldLogin, input.Login)
	validator.Required(FieldPassword, input.Password)

	return validator.Err()
}
