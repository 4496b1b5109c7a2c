package wallets

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/abed-obaah/royal-backend/pkg/errors"
)

func TestServiceGetProvisionsWallet(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()
	userID := uuid.New()

	view, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, view.UserID)
	assert.True(t, view.AvailableBalance.IsZero())
	assert.True(t, view.InvestedBalance.IsZero())
	assert.True(t, view.Total.IsZero())

	// a second read returns the same row
	again, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, again.ID)
}

func TestServiceGetDerivesTotal(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()
	wallet := seedWallet(t, db, "120.5", "79.5")

	view, err := svc.Get(ctx, wallet.UserID)
	require.NoError(t, err)
	assert.True(t, view.Total.Equal(decimal.RequireFromString("200")), "total %s", view.Total)
}

func TestServiceGetRejectsNilUser(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
