// Package recurring holds the core types shared by subscription detection,
// matching and materialization.
//
// A "subscription" is stored as a recurring transaction: a named, periodic
// charge that bank transactions can be linked to.
package recurring

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the recurrence bucket of a subscription.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// Frequencies lists every supported bucket, shortest period first.
var Frequencies = []Frequency{Weekly, Biweekly, Monthly, Quarterly, Yearly}

// Valid reports whether f is one of the supported buckets.
func (f Frequency) Valid() bool {
	for _, known := range Frequencies {
		if f == known {
			return true
		}
	}
	return false
}

// Importance bounds for a subscription
const (
	MinImportance     = 1
	MaxImportance     = 3
	DefaultImportance = 2
)

// Transaction is a booked bank transaction.
// Amount is signed: negative values are expenses.
type Transaction struct {
	ID                     string
	UserID                 string
	AccountID              string
	Amount                 decimal.Decimal
	Currency               string
	Merchant               *string
	Description            *string
	BookedAt               time.Time
	CategoryID             *string
	RecurringTransactionID *string
}

// IsExpense reports whether the transaction is money going out.
func (t *Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// MerchantText returns the merchant or "" when unset.
func (t *Transaction) MerchantText() string {
	if t.Merchant == nil {
		return ""
	}
	return *t.Merchant
}

// DescriptionText returns the description or "" when unset.
func (t *Transaction) DescriptionText() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// Subscription is a recurring charge owned by a user.
type Subscription struct {
	ID         string
	UserID     string
	Name       string
	Merchant   *string
	Amount     decimal.Decimal // Positive magnitude
	Currency   string
	CategoryID *string
	Importance int
	Frequency  Frequency
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// LinkedCount is populated on reads only
	LinkedCount int
}

// Category is a user-owned transaction category.
type Category struct {
	ID     string
	UserID string
	Name   string
}

// MatchedTransaction is the projection of a transaction shown in a detection result.
type MatchedTransaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	BookedAt    time.Time       `json:"booked_at"`
	Merchant    *string         `json:"merchant,omitempty"`
	Description *string         `json:"description,omitempty"`
}

// NewMatchedTransaction projects tx.
func NewMatchedTransaction(tx *Transaction) MatchedTransaction {
	return MatchedTransaction{
		ID:          tx.ID,
		Amount:      tx.Amount,
		BookedAt:    tx.BookedAt,
		Merchant:    tx.Merchant,
		Description: tx.Description,
	}
}

// DetectionResult is computed on demand and never persisted.
type DetectionResult struct {
	TransactionID       string
	DetectedFrequency   *Frequency
	Confidence          int
	MatchedTransactions []MatchedTransaction

	// Defaults for the approval form, seeded from the source transaction
	SuggestedName     string
	SuggestedAmount   decimal.Decimal
	SuggestedMerchant *string
	Currency          string
}

// CreateFromDetectionInput is what a user approves after reviewing a detection.
type CreateFromDetectionInput struct {
	TransactionID         string
	Name                  string
	Frequency             Frequency
	CategoryID            *string
	Importance            *int
	MatchedTransactionIDs []string
}

// CreateFromDetectionResult reports the subscription created by the materializer.
type CreateFromDetectionResult struct {
	SubscriptionID string
	LinkedCount    int
}

// SubscriptionMatch is the result of matching one transaction against
// the active subscriptions of its owner.
type SubscriptionMatch struct {
	Subscription *Subscription
	Similarity   int
	AmountDiff   decimal.Decimal
}
