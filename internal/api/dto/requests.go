package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// CreateFromDetectionRequest is the body of POST /api/subscriptions/from-detection.
type CreateFromDetectionRequest struct {
	TransactionID         string   `json:"transaction_id"`
	Name                  string   `json:"name"`
	Frequency             string   `json:"frequency"`
	CategoryID            *string  `json:"category_id,omitempty"`
	Importance            *int     `json:"importance,omitempty"`
	MatchedTransactionIDs []string `json:"matched_transaction_ids"`
}

// ToInput converts the request to the materializer input.
func (r CreateFromDetectionRequest) ToInput() recurring.CreateFromDetectionInput {
	return recurring.CreateFromDetectionInput{
		TransactionID:         r.TransactionID,
		Name:                  r.Name,
		Frequency:             recurring.Frequency(strings.ToLower(strings.TrimSpace(r.Frequency))),
		CategoryID:            r.CategoryID,
		Importance:            r.Importance,
		MatchedTransactionIDs: r.MatchedTransactionIDs,
	}
}

// SetActiveRequest is the body of PATCH /api/subscriptions/{id}/active.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// LinkRequest is the body of PUT /api/transactions/{id}/subscription.
type LinkRequest struct {
	SubscriptionID string `json:"subscription_id"`
}

// TransactionRequest is one transaction of an import.
type TransactionRequest struct {
	ID          string  `json:"id"`
	AccountID   string  `json:"account_id,omitempty"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	Merchant    *string `json:"merchant,omitempty"`
	Description *string `json:"description,omitempty"`
	BookedAt    string  `json:"booked_at"`
	CategoryID  *string `json:"category_id,omitempty"`
}

// ImportRequest is the body of POST /api/transactions/import.
type ImportRequest struct {
	Transactions []TransactionRequest `json:"transactions"`
}

// ToTransaction parses amounts and dates. BookedAt accepts RFC 3339 or a
// plain YYYY-MM-DD date.
func (r TransactionRequest) ToTransaction() (*recurring.Transaction, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
	if err != nil {
		return nil, recurring.Invalid("amount", fmt.Sprintf("invalid amount %q", r.Amount))
	}
	bookedAt, err := ParseDate(r.BookedAt)
	if err != nil {
		return nil, recurring.Invalid("booked_at", fmt.Sprintf("invalid booking date %q", r.BookedAt))
	}
	return &recurring.Transaction{
		ID:          strings.TrimSpace(r.ID),
		AccountID:   r.AccountID,
		Amount:      amount,
		Currency:    strings.ToUpper(strings.TrimSpace(r.Currency)),
		Merchant:    r.Merchant,
		Description: r.Description,
		BookedAt:    bookedAt,
		CategoryID:  r.CategoryID,
	}, nil
}

// ParseDate accepts RFC 3339 timestamps and YYYY-MM-DD dates, returning UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
