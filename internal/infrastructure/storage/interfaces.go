package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, in-memory)
// and makes testing with mocks straightforward.
//
// Every method that takes a userID scopes reads and writes to that user.
// Rows owned by another user behave exactly like missing rows.
type Repository interface {
	TransactionRepository
	SubscriptionRepository
	CategoryRepository
	Ping(ctx context.Context) error
	Close() error
}

// TransactionRepository handles bank transactions
type TransactionRepository interface {
	// GetTransaction returns the transaction or a not_found error
	GetTransaction(ctx context.Context, userID, id string) (*recurring.Transaction, error)

	// ListExpenseHistory returns expense transactions booked at or after since,
	// newest first, capped at limit rows (0 = no cap)
	ListExpenseHistory(ctx context.Context, userID string, since time.Time, limit int) ([]*recurring.Transaction, error)

	// ImportTransactions inserts transactions, skipping ids that already exist.
	// Returns the number of rows inserted.
	ImportTransactions(ctx context.Context, txs []*recurring.Transaction) (int, error)

	// LinkTransaction points a transaction at a subscription; both must belong to userID
	LinkTransaction(ctx context.Context, userID, transactionID, subscriptionID string) error

	// UnlinkTransaction clears the subscription link of a transaction
	UnlinkTransaction(ctx context.Context, userID, transactionID string) error
}

// SubscriptionRepository handles recurring transactions (subscriptions)
type SubscriptionRepository interface {
	// CreateSubscriptionWithLinks inserts sub and links the given transaction ids
	// in one database transaction. Ids not owned by sub.UserID are skipped.
	// Returns the number of transactions linked.
	CreateSubscriptionWithLinks(ctx context.Context, sub *recurring.Subscription, transactionIDs []string) (int, error)

	// GetSubscription returns the subscription with its linked count
	GetSubscription(ctx context.Context, userID, id string) (*recurring.Subscription, error)

	// ListSubscriptions returns the user's subscriptions ordered by name
	ListSubscriptions(ctx context.Context, userID string, activeOnly bool) ([]*recurring.Subscription, error)

	// SubscriptionNameExists reports a case-sensitive name collision
	SubscriptionNameExists(ctx context.Context, userID, name string) (bool, error)

	// SetSubscriptionActive toggles the active flag
	SetSubscriptionActive(ctx context.Context, userID, id string, active bool) error

	// DeleteSubscription removes the subscription and unlinks its transactions.
	// Returns the number of transactions unlinked.
	DeleteSubscription(ctx context.Context, userID, id string) (int, error)
}

// CategoryRepository handles user categories
type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *recurring.Category) error
	GetCategory(ctx context.Context, userID, id string) (*recurring.Category, error)
}
