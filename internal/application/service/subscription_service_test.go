package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

func seedSubscriptions(store *storage.MockRepository) {
	store.AddSubscription(&recurring.Subscription{
		ID: "sub-1", UserID: testUser, Name: "Spotify", Amount: decimal.RequireFromString("9.99"),
		Currency: "EUR", Importance: 2, Frequency: recurring.Monthly, IsActive: true,
	})
	store.AddSubscription(&recurring.Subscription{
		ID: "sub-2", UserID: testUser, Name: "Gym", Amount: decimal.RequireFromString("29.00"),
		Currency: "EUR", Importance: 1, Frequency: recurring.Monthly, IsActive: false,
	})
	store.AddSubscription(&recurring.Subscription{
		ID: "sub-3", UserID: "user-2", Name: "Netflix", Amount: decimal.RequireFromString("15.99"),
		Currency: "EUR", Importance: 2, Frequency: recurring.Monthly, IsActive: true,
	})
}

func TestSubscriptionService_List(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	svc := NewSubscriptionService(store, nil, nil)

	all, err := svc.ListSubscriptions(userCtx(), false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Gym", all[0].Name)
	assert.Equal(t, "Spotify", all[1].Name)

	active, err := svc.ListSubscriptions(userCtx(), true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "sub-1", active[0].ID)
}

func TestSubscriptionService_Get(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	seedSpotify(store)
	require.NoError(t, store.LinkTransaction(context.Background(), testUser, "tx-1", "sub-1"))
	svc := NewSubscriptionService(store, nil, nil)

	sub, err := svc.GetSubscription(userCtx(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sub.LinkedCount)

	_, err = svc.GetSubscription(userCtx(), "sub-3")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))
}

func TestSubscriptionService_SetActive(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	svc := NewSubscriptionService(store, nil, nil)

	sub, err := svc.SetSubscriptionActive(userCtx(), "sub-1", false)
	require.NoError(t, err)
	assert.False(t, sub.IsActive)

	sub, err = svc.SetSubscriptionActive(userCtx(), "sub-1", true)
	require.NoError(t, err)
	assert.True(t, sub.IsActive)

	_, err = svc.SetSubscriptionActive(userCtx(), "sub-3", false)
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))
}

func TestSubscriptionService_Delete(t *testing.T) {
	// Arrange
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	seedSpotify(store)
	for _, id := range []string{"tx-1", "tx-2", "tx-3"} {
		require.NoError(t, store.LinkTransaction(context.Background(), testUser, id, "sub-1"))
	}
	svc := NewSubscriptionService(store, nil, nil)

	// Act
	unlinked, err := svc.DeleteSubscription(userCtx(), "sub-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, unlinked)
	assert.Nil(t, store.Transaction("tx-1").RecurringTransactionID)

	_, err = svc.GetSubscription(userCtx(), "sub-1")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))

	_, err = svc.DeleteSubscription(userCtx(), "sub-1")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))
}

func TestSubscriptionService_DeleteOtherUser(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	svc := NewSubscriptionService(store, nil, nil)

	_, err := svc.DeleteSubscription(userCtx(), "sub-3")

	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))
	_, err = store.GetSubscription(context.Background(), "user-2", "sub-3")
	assert.NoError(t, err)
}

func TestSubscriptionService_DeleteStorageError(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	store.DeleteSubscriptionErr = recurring.StorageFailure("delete subscription", errors.New("locked"))
	svc := NewSubscriptionService(store, nil, nil)

	_, err := svc.DeleteSubscription(userCtx(), "sub-1")

	assert.Equal(t, recurring.CodeStorage, recurring.CodeOf(err))
}

func TestSubscriptionService_LinkAndUnlink(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	seedSpotify(store)
	svc := NewSubscriptionService(store, nil, nil)

	require.NoError(t, svc.LinkTransaction(userCtx(), "tx-2", "sub-1"))
	assert.Equal(t, "sub-1", *store.Transaction("tx-2").RecurringTransactionID)

	require.NoError(t, svc.UnlinkTransaction(userCtx(), "tx-2"))
	assert.Nil(t, store.Transaction("tx-2").RecurringTransactionID)
}

func TestSubscriptionService_LinkErrors(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	seedSpotify(store)
	svc := NewSubscriptionService(store, nil, nil)

	err := svc.LinkTransaction(userCtx(), "tx-2", "")
	assert.Equal(t, recurring.CodeValidation, recurring.CodeOf(err))

	err = svc.LinkTransaction(userCtx(), "tx-2", "sub-3")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))

	err = svc.LinkTransaction(userCtx(), "missing", "sub-1")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))

	err = svc.UnlinkTransaction(userCtx(), "missing")
	assert.Equal(t, recurring.CodeNotFound, recurring.CodeOf(err))
}

func TestSubscriptionService_RequiresUser(t *testing.T) {
	store := storage.NewMockRepository()
	seedSubscriptions(store)
	svc := NewSubscriptionService(store, nil, nil)
	ctx := context.Background()

	_, err := svc.ListSubscriptions(ctx, false)
	assert.ErrorIs(t, err, recurring.ErrNotAuthenticated)

	_, err = svc.GetSubscription(ctx, "sub-1")
	assert.ErrorIs(t, err, recurring.ErrNotAuthenticated)

	_, err = svc.SetSubscriptionActive(ctx, "sub-1", false)
	assert.ErrorIs(t, err, recurring.ErrNotAuthenticated)

	_, err = svc.DeleteSubscription(ctx, "sub-1")
	assert.ErrorIs(t, err, recurring.ErrNotAuthenticated)

	assert.ErrorIs(t, svc.LinkTransaction(ctx, "tx-1", "sub-1"), recurring.ErrNotAuthenticated)
	assert.ErrorIs(t, svc.UnlinkTransaction(ctx, "tx-1"), recurring.ErrNotAuthenticated)
}
