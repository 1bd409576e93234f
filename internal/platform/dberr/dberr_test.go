// Copyright (c) 2026 Readstack. All rights reserved.

package dberr_test

import (
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/platform/apperr"
	"github.com/readstack/readstack/internal/platform/dberr"
)

/*
TestWrap verifies the mapping from driver errors to application errors.
*/
func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, dberr.Wrap(nil, "find book"))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := dberr.Wrap(pgx.ErrNoRows, "find book")
		assert.ErrorIs(t, err, dberr.ErrNotFound)
		assert.True(t, dberr.IsNotFound(err))
	})

	t.Run("wrapped no rows maps to not found", func(t *testing.T) {
		wrapped := errors.Join(errors.New("scan row"), pgx.ErrNoRows)
		assert.True(t, dberr.IsNotFound(dberr.Wrap(wrapped, "find book")))
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		driverErr := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		err := dberr.Wrap(driverErr, "create book")
		assert.ErrorIs(t, err, dberr.ErrConflict)
	})

	t.Run("anything else maps to internal", func(t *testing.T) {
		err := dberr.Wrap(errors.New("connection reset"), "create book")

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, "INTERNAL_ERROR", appError.Code)
		assert.False(t, dberr.IsNotFound(err))
	})
}
