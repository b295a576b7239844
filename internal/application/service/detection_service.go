package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eshaffer321/subtrack/internal/domain/frequency"
	"github.com/eshaffer321/subtrack/internal/domain/matcher"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

var detectionTracer = otel.Tracer("service/detection")

// Operation names used for spans, metrics and logs
const (
	OpDetect              = "detect_subscription"
	OpCreateFromDetection = "create_from_detection"
	OpMatchActive         = "match_active_subscription"
	OpImport              = "import_transactions"
)

// DetectionService runs recurring-charge detection for the calling user and
// materializes approved detections into subscriptions.
//
// Every method reads the caller from the context and fails with
// not_authenticated before touching storage.
type DetectionService struct {
	store   storage.Repository
	matcher *matcher.Matcher
	instrumentation
	now func() time.Time
}

// NewDetectionService creates a new detection service.
func NewDetectionService(store storage.Repository, m *matcher.Matcher, mtr *metrics.Metrics, logger *slog.Logger) *DetectionService {
	if m == nil {
		m = matcher.NewMatcher(matcher.DefaultConfig())
	}
	return &DetectionService{
		store:           store,
		matcher:         m,
		instrumentation: newInstrumentation(logger, mtr),
		now:             time.Now,
	}
}

// DetectSubscription finds the earlier charges that look like sourceID and
// infers their frequency. The result is never persisted.
func (s *DetectionService) DetectSubscription(ctx context.Context, sourceID string) (result *recurring.DetectionResult, err error) {
	start := time.Now()
	ctx, span := detectionTracer.Start(ctx, "DetectionService.DetectSubscription")
	defer span.End()
	defer func() { s.finish(ctx, span, OpDetect, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	source, err := s.store.GetTransaction(ctx, userID, sourceID)
	if err != nil {
		return nil, err
	}

	cfg := s.matcher.Config()
	since := s.now().AddDate(0, -cfg.LookbackMonths, 0)
	history, err := s.store.ListExpenseHistory(ctx, userID, since, cfg.MaxHistoryRows)
	if err != nil {
		return nil, err
	}

	candidates := s.matcher.FindCandidates(source, history)

	dates := make([]time.Time, 0, len(candidates.Transactions))
	matched := make([]recurring.MatchedTransaction, 0, len(candidates.Transactions))
	for _, tx := range candidates.Transactions {
		dates = append(dates, tx.BookedAt)
		matched = append(matched, recurring.NewMatchedTransaction(tx))
	}

	inferred := frequency.Infer(dates, candidates.ExactMerchant)

	result = &recurring.DetectionResult{
		TransactionID:       source.ID,
		DetectedFrequency:   inferred.Frequency,
		Confidence:          inferred.Confidence,
		MatchedTransactions: matched,
		SuggestedName:       suggestedName(source),
		SuggestedAmount:     source.Amount.Abs(),
		SuggestedMerchant:   source.Merchant,
		Currency:            source.Currency,
	}

	detected := inferred.Frequency != nil
	s.metrics.RecordDetection(detected, inferred.Confidence, len(matched))
	span.SetAttributes(
		attribute.Int("detection.history_rows", len(history)),
		attribute.Int("detection.matched", len(matched)),
		attribute.Int("detection.confidence", inferred.Confidence),
		attribute.Bool("detection.exact_merchant", candidates.ExactMerchant),
	)

	freq := "none"
	if detected {
		freq = string(*inferred.Frequency)
	}
	s.logger.InfoContext(ctx, "Detection complete",
		"transaction_id", source.ID,
		"history_rows", len(history),
		"matched", len(matched),
		"frequency", freq,
		"confidence", inferred.Confidence)

	return result, nil
}

// suggestedName prefers the merchant and falls back to the description
func suggestedName(tx *recurring.Transaction) string {
	if name := strings.TrimSpace(tx.MerchantText()); name != "" {
		return name
	}
	return strings.TrimSpace(tx.DescriptionText())
}

// CreateSubscriptionFromDetection persists an approved detection and links
// the matched transactions the caller owns. Insert and links share one
// database transaction.
func (s *DetectionService) CreateSubscriptionFromDetection(ctx context.Context, input recurring.CreateFromDetectionInput) (result *recurring.CreateFromDetectionResult, err error) {
	start := time.Now()
	ctx, span := detectionTracer.Start(ctx, "DetectionService.CreateSubscriptionFromDetection")
	defer span.End()
	defer func() { s.finish(ctx, span, OpCreateFromDetection, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, recurring.Invalid("name", "name is required")
	}

	importance := recurring.DefaultImportance
	if input.Importance != nil {
		importance = *input.Importance
	}
	if importance < recurring.MinImportance || importance > recurring.MaxImportance {
		return nil, recurring.Invalid("importance", "importance must be between 1 and 3")
	}

	if !input.Frequency.Valid() {
		return nil, recurring.Invalid("frequency", "frequency must be one of weekly, biweekly, monthly, quarterly, yearly")
	}

	var categoryID *string
	if input.CategoryID != nil && *input.CategoryID != "" {
		if _, err := s.store.GetCategory(ctx, userID, *input.CategoryID); err != nil {
			return nil, err
		}
		id := *input.CategoryID
		categoryID = &id
	}

	source, err := s.store.GetTransaction(ctx, userID, input.TransactionID)
	if err != nil {
		return nil, err
	}

	amount := source.Amount.Abs()
	if amount.IsZero() {
		return nil, recurring.Invalid("amount", "source transaction amount must be non-zero")
	}

	exists, err := s.store.SubscriptionNameExists(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, recurring.DuplicateName(name)
	}

	now := s.now().UTC()
	sub := &recurring.Subscription{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       name,
		Merchant:   source.Merchant,
		Amount:     amount,
		Currency:   source.Currency,
		CategoryID: categoryID,
		Importance: importance,
		Frequency:  input.Frequency,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// The unique (user_id, name) constraint still guards a concurrent create
	linked, err := s.store.CreateSubscriptionWithLinks(ctx, sub, uniqueIDs(input.MatchedTransactionIDs))
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSubscriptionEvent("created")
	s.metrics.AddLinked(linked)
	span.SetAttributes(
		attribute.String("subscription.id", sub.ID),
		attribute.Int("subscription.linked", linked),
	)
	s.logger.InfoContext(ctx, "Subscription created",
		"subscription_id", sub.ID,
		"name", sub.Name,
		"frequency", string(sub.Frequency),
		"amount", sub.Amount.String(),
		"linked", linked)

	return &recurring.CreateFromDetectionResult{SubscriptionID: sub.ID, LinkedCount: linked}, nil
}

// uniqueIDs drops blanks and duplicates, keeping first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// MatchActiveSubscription finds the caller's active subscription that the
// transaction most likely belongs to. Returns nil without error when none fits.
func (s *DetectionService) MatchActiveSubscription(ctx context.Context, transactionID string) (match *recurring.SubscriptionMatch, err error) {
	start := time.Now()
	ctx, span := detectionTracer.Start(ctx, "DetectionService.MatchActiveSubscription")
	defer span.End()
	defer func() { s.finish(ctx, span, OpMatchActive, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	subs, err := s.store.ListSubscriptions(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	match = s.matcher.MatchSubscription(tx, subs)
	span.SetAttributes(attribute.Bool("match.found", match != nil))
	if match != nil {
		s.logger.DebugContext(ctx, "Matched active subscription",
			"transaction_id", tx.ID,
			"subscription_id", match.Subscription.ID,
			"similarity", match.Similarity)
	}
	return match, nil
}

// ImportTransactions stores transactions for the caller. Each transaction is
// assigned to the caller regardless of its UserID.
func (s *DetectionService) ImportTransactions(ctx context.Context, txs []*recurring.Transaction) (inserted int, err error) {
	start := time.Now()
	ctx, span := detectionTracer.Start(ctx, "DetectionService.ImportTransactions")
	defer span.End()
	defer func() { s.finish(ctx, span, OpImport, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return 0, err
	}

	owned := make([]*recurring.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		if strings.TrimSpace(tx.ID) == "" {
			return 0, recurring.Invalid("id", "transaction id is required")
		}
		if tx.Currency == "" {
			return 0, recurring.Invalid("currency", "currency is required")
		}
		if tx.BookedAt.IsZero() {
			return 0, recurring.Invalid("booked_at", "booking date is required")
		}
		copied := *tx
		copied.UserID = userID
		// Links are only set through the link operations
		copied.RecurringTransactionID = nil
		owned = append(owned, &copied)
	}

	inserted, err = s.store.ImportTransactions(ctx, owned)
	if err != nil {
		return 0, err
	}

	span.SetAttributes(attribute.Int("import.inserted", inserted))
	s.logger.InfoContext(ctx, "Imported transactions", "received", len(txs), "inserted", inserted)
	return inserted, nil
}
