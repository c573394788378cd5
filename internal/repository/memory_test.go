package repository

import (
	"context"
	"testing"
	"time"

	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/GoPolymarket/polydesk/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCredentialStore()
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	_, err := s.Get(ctx, "u1")
	assert.True(t, apperrors.IsType(err, apperrors.ErrNotFound))

	require.NoError(t, s.Upsert(ctx, &model.Credentials{UserID: "u1", Polymarket: &model.VenueBCredentials{APIKey: "old"}}))
	require.NoError(t, s.Upsert(ctx, &model.Credentials{UserID: "u1", Polymarket: &model.VenueBCredentials{APIKey: "new"}}))

	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Polymarket.APIKey)
	assert.Nil(t, got.Kalshi)
	assert.Equal(t, 2026, got.UpdatedAt.Year())
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryCredentialStore()
	st := 1
	in := &model.Credentials{UserID: "u1", Polymarket: &model.VenueBCredentials{Secret: "s", SignatureType: &st}}
	require.NoError(t, s.Upsert(ctx, in))

	in.Polymarket.Secret = "mutated"
	got, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "s", got.Polymarket.Secret)

	*got.Polymarket.SignatureType = 0
	again, _ := s.Get(ctx, "u1")
	assert.Equal(t, 1, *again.Polymarket.SignatureType)
}
