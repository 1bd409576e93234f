// Copyright (c) 2026 Readstack. All rights reserved.

package auth_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/platform/apperr"
	"github.com/readstack/readstack/internal/platform/dberr"
	"github.com/readstack/readstack/internal/platform/sec"
	"github.com/readstack/readstack/internal/store"
	"github.com/readstack/readstack/internal/users/auth"
)

// # Fakes

type fakeUserRepo struct {
	byEmail    map[string]*store.User
	byUsername map[string]*store.User
	created    []*store.User
}

func (repo *fakeUserRepo) Create(_ context.Context, user *store.User) error {
	user.ID = fmt.Sprintf("user-%d", len(repo.created)+1)
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	repo.created = append(repo.created, user)
	return nil
}

func (repo *fakeUserRepo) GetByID(_ context.Context, id string) (*store.User, error) {
	for _, user := range repo.created {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeUserRepo) FindByEmail(_ context.Context, email string) (*store.User, error) {
	if user, ok := repo.byEmail[email]; ok {
		return user, nil
	}
	return nil, dberr.ErrNotFound
}

func (repo *fakeUserRepo) FindByUsername(_ context.Context, username string) (*store.User, error) {
	if user, ok := repo.byUsername[username]; ok {
		return user, nil
	}
	return nil, dberr.ErrNotFound
}

type fakeUnitOfWork struct {
	users   *fakeUserRepo
	commits int
}

func (uow *fakeUnitOfWork) Books() store.BookRepository    { return nil }
func (uow *fakeUnitOfWork) Users() store.UserRepository    { return uow.users }
func (uow *fakeUnitOfWork) Commit(_ context.Context) error { uow.commits++; return nil }
func (uow *fakeUnitOfWork) Close(_ context.Context) error  { return nil }

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (factory *fakeFactory) Begin(_ context.Context) (store.UnitOfWork, error) {
	return factory.uow, nil
}

type fakeTokens struct {
	issued int
}

func (tokens *fakeTokens) GenerateAccessToken(userID, username, role string, _ time.Duration) (string, error) {
	tokens.issued++
	return "token-for-" + userID, nil
}

func newAuthService(t *testing.T, repo *fakeUserRepo) (*auth.Service, *fakeFactory, *fakeTokens) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	factory := &fakeFactory{uow: &fakeUnitOfWork{users: repo}}
	tokens := &fakeTokens{}
	return auth.NewService(factory, tokens, logger), factory, tokens
}

// activeUser builds a stored account with the given password hashed for real,
// so login exercises the actual bcrypt comparison.
func activeUser(t *testing.T, password string) *store.User {
	t.Helper()
	hash, err := sec.HashPassword(password)
	require.NoError(t, err)
	return &store.User{
		ID:           "user-1",
		Email:        "reader@example.com",
		Username:     "reader",
		PasswordHash: hash,
		Role:         "user",
		IsActive:     true,
	}
}

// # Registration

/*
TestRegister_CreatesUserWithDefaults verifies the happy path: the password is
stored hashed, the default role and active flag are set, and the scope commits.
*/
func TestRegister_CreatesUserWithDefaults(t *testing.T) {
	repo := &fakeUserRepo{}
	service, factory, _ := newAuthService(t, repo)

	response, err := service.Register(context.Background(), auth.RegisterInput{
		Email:    "reader@example.com",
		Username: "reader",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	// 1. Stored and committed
	require.Len(t, repo.created, 1)
	assert.Equal(t, 1, factory.uow.commits)

	// 2. Defaults applied
	stored := repo.created[0]
	assert.Equal(t, "user", stored.Role)
	assert.True(t, stored.IsActive)
	assert.Equal(t, "user", response.Role)

	// 3. Password hashed, never stored raw, and verifiable
	assert.NotEqual(t, "hunter2hunter2", stored.PasswordHash)
	assert.True(t, sec.CheckPasswordHash("hunter2hunter2", stored.PasswordHash))
}

/*
TestRegister_Conflicts verifies that email and username collisions each
report which field collided.
*/
func TestRegister_Conflicts(t *testing.T) {
	existing := &store.User{ID: "user-1", Email: "reader@example.com", Username: "reader"}

	tests := []struct {
		name    string
		repo    *fakeUserRepo
		message string
	}{
		{
			name:    "email taken",
			repo:    &fakeUserRepo{byEmail: map[string]*store.User{"reader@example.com": existing}},
			message: "Email already registered",
		},
		{
			name:    "username taken",
			repo:    &fakeUserRepo{byUsername: map[string]*store.User{"reader": existing}},
			message: "Username already taken",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, factory, _ := newAuthService(t, tt.repo)

			_, err := service.Register(context.Background(), auth.RegisterInput{
				Email:    "reader@example.com",
				Username: "reader",
				Password: "hunter2hunter2",
			})

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "CONFLICT", appError.Code)
			assert.Equal(t, tt.message, appError.Message)
			assert.Empty(t, tt.repo.created)
			assert.Equal(t, 0, factory.uow.commits)
		})
	}
}

/*
TestRegister_Validation verifies the field rules on the registration payload.
*/
func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input auth.RegisterInput
	}{
		{"bad email", auth.RegisterInput{Email: "not-an-email", Username: "reader", Password: "hunter2hunter2"}},
		{"short username", auth.RegisterInput{Email: "reader@example.com", Username: "ab", Password: "hunter2hunter2"}},
		{"short password", auth.RegisterInput{Email: "reader@example.com", Username: "reader", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, _ := newAuthService(t, &fakeUserRepo{})

			_, err := service.Register(context.Background(), tt.input)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "VALIDATION_ERROR", appError.Code)
		})
	}
}

// # Login

/*
TestLogin_ByEmailAndUsername verifies that the login identifier resolves
through email first, then username, and that a bearer token comes back.
*/
func TestLogin_ByEmailAndUsername(t *testing.T) {
	user := activeUser(t, "hunter2hunter2")
	repo := &fakeUserRepo{
		byEmail:    map[string]*store.User{user.Email: user},
		byUsername: map[string]*store.User{user.Username: user},
	}
	service, _, tokens := newAuthService(t, repo)

	// 1. By email
	response, err := service.Login(context.Background(), auth.LoginInput{
		Login:    "reader@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, "token-for-user-1", response.AccessToken)
	assert.Equal(t, "bearer", response.TokenType)
	assert.Positive(t, response.ExpiresIn)

	// 2. By username
	_, err = service.Login(context.Background(), auth.LoginInput{
		Login:    "reader",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tokens.issued)
}

/*
TestLogin_UniformRejection verifies that unknown accounts, wrong passwords
and deactivated accounts are all rejected with the same message, so the
response cannot be used to probe for accounts.
*/
func TestLogin_UniformRejection(t *testing.T) {
	inactive := activeUser(t, "hunter2hunter2")
	inactive.IsActive = false

	active := activeUser(t, "hunter2hunter2")

	tests := []struct {
		name  string
		repo  *fakeUserRepo
		input auth.LoginInput
	}{
		{
			name:  "unknown account",
			repo:  &fakeUserRepo{},
			input: auth.LoginInput{Login: "ghost", Password: "hunter2hunter2"},
		},
		{
			name:  "wrong password",
			repo:  &fakeUserRepo{byEmail: map[string]*store.User{active.Email: active}},
			input: auth.LoginInput{Login: active.Email, Password: "wrong-password"},
		},
		{
			name:  "deactivated account",
			repo:  &fakeUserRepo{byEmail: map[string]*store.User{inactive.Email: inactive}},
			input: auth.LoginInput{Login: inactive.Email, Password: "hunter2hunter2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, _, tokens := newAuthService(t, tt.repo)

			_, err := service.Login(context.Background(), tt.input)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "UNAUTHORIZED", appError.Code)
			assert.Equal(t, "Invalid credentials", appError.Message)
			assert.Equal(t, 0, tokens.issued)
		})
	}
}

// # Profile

/*
TestMe verifies the profile lookup for a registered account.
*/
func TestMe(t *testing.T) {
	repo := &fakeUserRepo{}
	service, _, _ := newAuthService(t, repo)

	registered, err := service.Register(context.Background(), auth.RegisterInput{
		Email:    "reader@example.com",
		Username: "reader",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)

	profile, err := service.Me(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", profile.Email)
	assert.Equal(t, "reader", profile.Username)

	_, err = service.Me(context.Background(), "missing")
	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "NOT_FOUND", appError.Code)
}
