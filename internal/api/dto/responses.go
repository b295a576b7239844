package dto

import (
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// Envelope wraps every /api response.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// Success wraps data in a successful envelope.
func Success(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Failure wraps err in a failed envelope.
func Failure(err APIError) Envelope {
	return Envelope{Success: false, Error: &err}
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database,omitempty"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// MatchedTransactionResponse is one transaction of a detection.
type MatchedTransactionResponse struct {
	ID          string  `json:"id"`
	Amount      string  `json:"amount"`
	BookedAt    string  `json:"booked_at"`
	Merchant    *string `json:"merchant"`
	Description *string `json:"description"`
}

// DetectionResponse is the body of a detection. DetectedFrequency is null
// when no recurrence was found.
type DetectionResponse struct {
	TransactionID       string                       `json:"transaction_id"`
	DetectedFrequency   *string                      `json:"detected_frequency"`
	Confidence          int                          `json:"confidence"`
	MatchedTransactions []MatchedTransactionResponse `json:"matched_transactions"`
	SuggestedName       string                       `json:"suggested_name"`
	SuggestedAmount     string                       `json:"suggested_amount"`
	SuggestedMerchant   *string                      `json:"suggested_merchant"`
	Currency            string                       `json:"currency"`
}

// NewDetectionResponse converts a domain detection result.
func NewDetectionResponse(r *recurring.DetectionResult) DetectionResponse {
	resp := DetectionResponse{
		TransactionID:       r.TransactionID,
		Confidence:          r.Confidence,
		MatchedTransactions: make([]MatchedTransactionResponse, 0, len(r.MatchedTransactions)),
		SuggestedName:       r.SuggestedName,
		SuggestedAmount:     r.SuggestedAmount.StringFixed(2),
		SuggestedMerchant:   r.SuggestedMerchant,
		Currency:            r.Currency,
	}
	if r.DetectedFrequency != nil {
		f := string(*r.DetectedFrequency)
		resp.DetectedFrequency = &f
	}
	for _, m := range r.MatchedTransactions {
		resp.MatchedTransactions = append(resp.MatchedTransactions, MatchedTransactionResponse{
			ID:          m.ID,
			Amount:      m.Amount.StringFixed(2),
			BookedAt:    m.BookedAt.UTC().Format(time.RFC3339),
			Merchant:    m.Merchant,
			Description: m.Description,
		})
	}
	return resp
}

// CreateFromDetectionResponse is returned after materializing a detection.
type CreateFromDetectionResponse struct {
	SubscriptionID string `json:"subscription_id"`
	LinkedCount    int    `json:"linked_count"`
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Merchant    *string `json:"merchant"`
	Amount      string  `json:"amount"`
	Currency    string  `json:"currency"`
	CategoryID  *string `json:"category_id"`
	Importance  int     `json:"importance"`
	Frequency   string  `json:"frequency"`
	IsActive    bool    `json:"is_active"`
	LinkedCount int     `json:"linked_count"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// NewSubscriptionResponse converts a domain subscription.
func NewSubscriptionResponse(s *recurring.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Merchant:    s.Merchant,
		Amount:      s.Amount.StringFixed(2),
		Currency:    s.Currency,
		CategoryID:  s.CategoryID,
		Importance:  s.Importance,
		Frequency:   string(s.Frequency),
		IsActive:    s.IsActive,
		LinkedCount: s.LinkedCount,
		CreatedAt:   s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SubscriptionListResponse is returned when listing subscriptions.
type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Count         int                    `json:"count"`
}

// SubscriptionMatchResponse is the body of an active-subscription match.
// Subscription is null when nothing matched.
type SubscriptionMatchResponse struct {
	Matched      bool                  `json:"matched"`
	Subscription *SubscriptionResponse `json:"subscription"`
	Similarity   int                   `json:"similarity,omitempty"`
	AmountDiff   string                `json:"amount_diff,omitempty"`
}

// NewSubscriptionMatchResponse converts a match result; nil means no match.
func NewSubscriptionMatchResponse(match *recurring.SubscriptionMatch) SubscriptionMatchResponse {
	resp := SubscriptionMatchResponse{Matched: match != nil}
	if match != nil {
		sub := NewSubscriptionResponse(match.Subscription)
		resp.Subscription = &sub
		resp.Similarity = match.Similarity
		resp.AmountDiff = match.AmountDiff.StringFixed(2)
	}
	return resp
}

// DeleteSubscriptionResponse reports how many transactions lost their link.
type DeleteSubscriptionResponse struct {
	UnlinkedCount int `json:"unlinked_count"`
}

// LinkResponse reports the link state of a transaction after a change.
type LinkResponse struct {
	TransactionID  string  `json:"transaction_id"`
	SubscriptionID *string `json:"subscription_id"`
}

// ImportResponse reports how many transactions were inserted.
type ImportResponse struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
}
