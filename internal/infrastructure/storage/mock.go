package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	mu            sync.Mutex
	transactions  map[string]*recurring.Transaction
	subscriptions map[string]*recurring.Subscription
	categories    map[string]*recurring.Category

	// Hooks for test assertions
	CreateSubscriptionCalled bool
	LastCreatedSubscription  *recurring.Subscription
	LastLinkedIDs            []string
	HistoryCalls             int
	LastHistorySince         time.Time
	LastHistoryLimit         int

	// Error injection for testing error paths
	GetTransactionErr     error
	ListHistoryErr        error
	CreateSubscriptionErr error
	ListSubscriptionsErr  error
	NameExistsErr         error
	DeleteSubscriptionErr error
	PingErr               error

	// BeforeCreate runs just before a subscription insert, after the name check
	// a real database would race with
	BeforeCreate func(sub *recurring.Subscription)
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		transactions:  make(map[string]*recurring.Transaction),
		subscriptions: make(map[string]*recurring.Subscription),
		categories:    make(map[string]*recurring.Category),
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Ping returns PingErr
func (m *MockRepository) Ping(ctx context.Context) error {
	return m.PingErr
}

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// AddTransaction seeds a transaction
func (m *MockRepository) AddTransaction(tx *recurring.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *tx
	m.transactions[tx.ID] = &copied
}

// AddSubscription seeds a subscription
func (m *MockRepository) AddSubscription(sub *recurring.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *sub
	m.subscriptions[sub.ID] = &copied
}

// AddCategory seeds a category
func (m *MockRepository) AddCategory(c *recurring.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *c
	m.categories[c.ID] = &copied
}

// Transaction returns the stored transaction regardless of owner
func (m *MockRepository) Transaction(id string) *recurring.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil
	}
	copied := *tx
	return &copied
}

// GetTransaction returns a copy of the transaction owned by userID
func (m *MockRepository) GetTransaction(ctx context.Context, userID, id string) (*recurring.Transaction, error) {
	if m.GetTransactionErr != nil {
		return nil, m.GetTransactionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, recurring.NotFound("transaction")
	}
	copied := *tx
	return &copied, nil
}

// ListExpenseHistory mirrors the SQL filter and ordering
func (m *MockRepository) ListExpenseHistory(ctx context.Context, userID string, since time.Time, limit int) ([]*recurring.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.HistoryCalls++
	m.LastHistorySince = since
	m.LastHistoryLimit = limit
	if m.ListHistoryErr != nil {
		return nil, m.ListHistoryErr
	}

	var result []*recurring.Transaction
	for _, tx := range m.transactions {
		if tx.UserID != userID || !tx.IsExpense() || tx.BookedAt.Before(since) {
			continue
		}
		copied := *tx
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BookedAt.Equal(result[j].BookedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].BookedAt.After(result[j].BookedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ImportTransactions inserts transactions that are not present yet
func (m *MockRepository) ImportTransactions(ctx context.Context, txs []*recurring.Transaction) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inserted := 0
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		if _, exists := m.transactions[tx.ID]; exists {
			continue
		}
		copied := *tx
		m.transactions[tx.ID] = &copied
		inserted++
	}
	return inserted, nil
}

// LinkTransaction links a transaction to a subscription of the same user
func (m *MockRepository) LinkTransaction(ctx context.Context, userID, transactionID, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[subscriptionID]
	if !ok || sub.UserID != userID {
		return recurring.NotFound("subscription")
	}
	tx, ok := m.transactions[transactionID]
	if !ok || tx.UserID != userID {
		return recurring.NotFound("transaction")
	}
	id := subscriptionID
	tx.RecurringTransactionID = &id
	return nil
}

// UnlinkTransaction clears the link of a transaction owned by userID
func (m *MockRepository) UnlinkTransaction(ctx context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[transactionID]
	if !ok || tx.UserID != userID {
		return recurring.NotFound("transaction")
	}
	tx.RecurringTransactionID = nil
	return nil
}

// CreateSubscriptionWithLinks stores the subscription and links owned transactions
func (m *MockRepository) CreateSubscriptionWithLinks(ctx context.Context, sub *recurring.Subscription, transactionIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateSubscriptionCalled = true
	m.LastCreatedSubscription = sub
	m.LastLinkedIDs = transactionIDs
	if m.CreateSubscriptionErr != nil {
		return 0, m.CreateSubscriptionErr
	}

	if m.BeforeCreate != nil {
		m.mu.Unlock()
		m.BeforeCreate(sub)
		m.mu.Lock()
	}

	// UNIQUE(user_id, name)
	for _, existing := range m.subscriptions {
		if existing.UserID == sub.UserID && existing.Name == sub.Name {
			return 0, recurring.DuplicateName(sub.Name)
		}
	}

	now := time.Now().UTC()
	copied := *sub
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = now
	}
	if copied.UpdatedAt.IsZero() {
		copied.UpdatedAt = copied.CreatedAt
	}
	m.subscriptions[sub.ID] = &copied

	linked := 0
	seen := make(map[string]bool)
	for _, id := range transactionIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		tx, ok := m.transactions[id]
		if !ok || tx.UserID != sub.UserID {
			continue
		}
		subID := sub.ID
		tx.RecurringTransactionID = &subID
		linked++
	}
	return linked, nil
}

func (m *MockRepository) linkedCount(sub *recurring.Subscription) int {
	count := 0
	for _, tx := range m.transactions {
		if tx.UserID == sub.UserID && tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == sub.ID {
			count++
		}
	}
	return count
}

// GetSubscription returns a copy with the linked count populated
func (m *MockRepository) GetSubscription(ctx context.Context, userID, id string) (*recurring.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[id]
	if !ok || sub.UserID != userID {
		return nil, recurring.NotFound("subscription")
	}
	copied := *sub
	copied.LinkedCount = m.linkedCount(sub)
	return &copied, nil
}

// ListSubscriptions returns the user's subscriptions ordered by name
func (m *MockRepository) ListSubscriptions(ctx context.Context, userID string, activeOnly bool) ([]*recurring.Subscription, error) {
	if m.ListSubscriptionsErr != nil {
		return nil, m.ListSubscriptionsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*recurring.Subscription
	for _, sub := range m.subscriptions {
		if sub.UserID != userID || (activeOnly && !sub.IsActive) {
			continue
		}
		copied := *sub
		copied.LinkedCount = m.linkedCount(sub)
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name == result[j].Name {
			return result[i].ID < result[j].ID
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// SubscriptionNameExists checks for a case-sensitive name collision
func (m *MockRepository) SubscriptionNameExists(ctx context.Context, userID, name string) (bool, error) {
	if m.NameExistsErr != nil {
		return false, m.NameExistsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sub := range m.subscriptions {
		if sub.UserID == userID && sub.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// SetSubscriptionActive toggles the active flag
func (m *MockRepository) SetSubscriptionActive(ctx context.Context, userID, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[id]
	if !ok || sub.UserID != userID {
		return recurring.NotFound("subscription")
	}
	sub.IsActive = active
	sub.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteSubscription unlinks and removes the subscription
func (m *MockRepository) DeleteSubscription(ctx context.Context, userID, id string) (int, error) {
	if m.DeleteSubscriptionErr != nil {
		return 0, m.DeleteSubscriptionErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[id]
	if !ok || sub.UserID != userID {
		return 0, recurring.NotFound("subscription")
	}

	unlinked := 0
	for _, tx := range m.transactions {
		if tx.UserID == userID && tx.RecurringTransactionID != nil && *tx.RecurringTransactionID == id {
			tx.RecurringTransactionID = nil
			unlinked++
		}
	}
	delete(m.subscriptions, id)
	return unlinked, nil
}

// CreateCategory stores a category
func (m *MockRepository) CreateCategory(ctx context.Context, category *recurring.Category) error {
	m.AddCategory(category)
	return nil
}

// GetCategory returns a category owned by userID
func (m *MockRepository) GetCategory(ctx context.Context, userID, id string) (*recurring.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return nil, recurring.NotFound("category")
	}
	copied := *c
	return &copied, nil
}
