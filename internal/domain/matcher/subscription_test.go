package matcher

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

func makeSubscription(id, name, amount string) *recurring.Subscription {
	return &recurring.Subscription{
		ID:         id,
		UserID:     testUser,
		Name:       name,
		Amount:     decimal.RequireFromString(amount),
		Currency:   "EUR",
		Importance: recurring.DefaultImportance,
		Frequency:  recurring.Monthly,
		IsActive:   true,
	}
}

func TestMatchSubscription_ByName(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx", "-9.99", date(7, 1), "Spotify", "")
	subs := []*recurring.Subscription{
		makeSubscription("s1", "Netflix", "9.99"),
		makeSubscription("s2", "spotify", "9.99"),
	}

	// Act
	match := matcher.MatchSubscription(tx, subs)

	// Assert
	require.NotNil(t, match)
	assert.Equal(t, "s2", match.Subscription.ID)
	assert.Equal(t, 100, match.Similarity)
	assert.True(t, match.AmountDiff.IsZero())
}

func TestMatchSubscription_ByMerchantAgainstDescription(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx", "-12.00", date(7, 1), "", "Gym Membership")
	sub := makeSubscription("s1", "Fitness", "12.00")
	merchant := "Gym Membership"
	sub.Merchant = &merchant

	match := matcher.MatchSubscription(tx, []*recurring.Subscription{sub})

	require.NotNil(t, match)
	assert.Equal(t, "s1", match.Subscription.ID)
}

func TestMatchSubscription_AmountTolerance(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	sub := makeSubscription("s1", "Spotify", "10.00")

	t.Run("within 5 percent", func(t *testing.T) {
		tx := makeTransaction("tx", "-10.50", date(7, 1), "Spotify", "")
		match := matcher.MatchSubscription(tx, []*recurring.Subscription{sub})
		require.NotNil(t, match)
		assert.True(t, match.AmountDiff.Equal(decimal.RequireFromString("0.50")))
	})

	t.Run("outside 5 percent", func(t *testing.T) {
		tx := makeTransaction("tx", "-10.51", date(7, 1), "Spotify", "")
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})
}

func TestMatchSubscription_Filters(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx", "-9.99", date(7, 1), "Spotify", "")

	t.Run("inactive", func(t *testing.T) {
		sub := makeSubscription("s1", "Spotify", "9.99")
		sub.IsActive = false
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})

	t.Run("other user", func(t *testing.T) {
		sub := makeSubscription("s1", "Spotify", "9.99")
		sub.UserID = "user-2"
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})

	t.Run("other currency", func(t *testing.T) {
		sub := makeSubscription("s1", "Spotify", "9.99")
		sub.Currency = "USD"
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})

	t.Run("currency case insensitive", func(t *testing.T) {
		sub := makeSubscription("s1", "Spotify", "9.99")
		sub.Currency = "eur"
		assert.NotNil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})

	t.Run("weak name", func(t *testing.T) {
		sub := makeSubscription("s1", "Disney Plus", "9.99")
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{sub}))
	})

	t.Run("nil entries", func(t *testing.T) {
		assert.Nil(t, matcher.MatchSubscription(tx, []*recurring.Subscription{nil}))
	})
}

func TestMatchSubscription_TieBreaksOnAmount(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	tx := makeTransaction("tx", "-10.00", date(7, 1), "Spotify", "")
	subs := []*recurring.Subscription{
		makeSubscription("far", "Spotify", "10.40"),
		makeSubscription("near", "Spotify", "10.10"),
	}

	match := matcher.MatchSubscription(tx, subs)

	require.NotNil(t, match)
	assert.Equal(t, "near", match.Subscription.ID)
}
