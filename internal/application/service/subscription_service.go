package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/infrastructure/metrics"
	"github.com/eshaffer321/subtrack/internal/infrastructure/storage"
)

var subscriptionTracer = otel.Tracer("service/subscription")

const (
	OpListSubscriptions  = "list_subscriptions"
	OpGetSubscription    = "get_subscription"
	OpSetActive          = "set_subscription_active"
	OpDeleteSubscription = "delete_subscription"
	OpLinkTransaction    = "link_transaction"
	OpUnlinkTransaction  = "unlink_transaction"
)

// SubscriptionService manages existing subscriptions and their links.
type SubscriptionService struct {
	store storage.Repository
	instrumentation
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(store storage.Repository, mtr *metrics.Metrics, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:           store,
		instrumentation: newInstrumentation(logger, mtr),
	}
}

// ListSubscriptions returns the caller's subscriptions ordered by name.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, activeOnly bool) (subs []*recurring.Subscription, err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.ListSubscriptions")
	defer span.End()
	defer func() { s.finish(ctx, span, OpListSubscriptions, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	subs, err = s.store.ListSubscriptions(ctx, userID, activeOnly)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("subscriptions.count", len(subs)))
	return subs, nil
}

// GetSubscription returns one subscription with its linked count.
func (s *SubscriptionService) GetSubscription(ctx context.Context, id string) (sub *recurring.Subscription, err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.GetSubscription")
	defer span.End()
	defer func() { s.finish(ctx, span, OpGetSubscription, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.store.GetSubscription(ctx, userID, id)
}

// SetSubscriptionActive pauses or resumes a subscription and returns it.
func (s *SubscriptionService) SetSubscriptionActive(ctx context.Context, id string, active bool) (sub *recurring.Subscription, err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.SetSubscriptionActive")
	defer span.End()
	defer func() { s.finish(ctx, span, OpSetActive, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetSubscriptionActive(ctx, userID, id, active); err != nil {
		return nil, err
	}

	event := "deactivated"
	if active {
		event = "activated"
	}
	s.metrics.RecordSubscriptionEvent(event)
	s.logger.InfoContext(ctx, "Subscription "+event, "subscription_id", id)

	return s.store.GetSubscription(ctx, userID, id)
}

// DeleteSubscription removes a subscription and returns how many
// transactions were unlinked from it.
func (s *SubscriptionService) DeleteSubscription(ctx context.Context, id string) (unlinked int, err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.DeleteSubscription")
	defer span.End()
	defer func() { s.finish(ctx, span, OpDeleteSubscription, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return 0, err
	}

	unlinked, err = s.store.DeleteSubscription(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	s.metrics.RecordSubscriptionEvent("deleted")
	span.SetAttributes(attribute.Int("subscription.unlinked", unlinked))
	s.logger.InfoContext(ctx, "Subscription deleted", "subscription_id", id, "unlinked", unlinked)
	return unlinked, nil
}

// LinkTransaction attaches one of the caller's transactions to one of their
// subscriptions, replacing any previous link.
func (s *SubscriptionService) LinkTransaction(ctx context.Context, transactionID, subscriptionID string) (err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.LinkTransaction")
	defer span.End()
	defer func() { s.finish(ctx, span, OpLinkTransaction, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(subscriptionID) == "" {
		return recurring.Invalid("subscription_id", "subscription id is required")
	}

	if err := s.store.LinkTransaction(ctx, userID, transactionID, subscriptionID); err != nil {
		return err
	}
	s.metrics.AddLinked(1)
	s.logger.InfoContext(ctx, "Transaction linked", "transaction_id", transactionID, "subscription_id", subscriptionID)
	return nil
}

// UnlinkTransaction clears the subscription link of a transaction.
func (s *SubscriptionService) UnlinkTransaction(ctx context.Context, transactionID string) (err error) {
	start := time.Now()
	ctx, span := subscriptionTracer.Start(ctx, "SubscriptionService.UnlinkTransaction")
	defer span.End()
	defer func() { s.finish(ctx, span, OpUnlinkTransaction, start, err) }()

	userID, err := recurring.RequireUser(ctx)
	if err != nil {
		return err
	}

	if err := s.store.UnlinkTransaction(ctx, userID, transactionID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Transaction unlinked", "transaction_id", transactionID)
	return nil
}
