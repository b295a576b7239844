package matcher

import (
	"strings"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/domain/similarity"
)

// MatchSubscription finds the active subscription that tx most likely belongs to.
// Returns nil if no suitable match found.
//
// Linking is stricter than detection:
//   - Currency must match
//   - Amount must be within LinkTolerance of the subscription amount
//   - Name or merchant similarity must reach LinkMinSimilarity
//
// Ties on similarity go to the smallest amount difference.
func (m *Matcher) MatchSubscription(tx *recurring.Transaction, subscriptions []*recurring.Subscription) *recurring.SubscriptionMatch {
	var best *recurring.SubscriptionMatch

	for _, sub := range subscriptions {
		if sub == nil || !sub.IsActive || sub.UserID != tx.UserID {
			continue
		}
		if !strings.EqualFold(sub.Currency, tx.Currency) {
			continue
		}

		diff := tx.Amount.Abs().Sub(sub.Amount.Abs()).Abs()
		if diff.GreaterThan(sub.Amount.Abs().Mul(m.config.LinkTolerance)) {
			continue
		}

		score := subscriptionSimilarity(tx, sub)
		if score < m.config.LinkMinSimilarity {
			continue
		}

		if best == nil || score > best.Similarity || (score == best.Similarity && diff.LessThan(best.AmountDiff)) {
			best = &recurring.SubscriptionMatch{
				Subscription: sub,
				Similarity:   score,
				AmountDiff:   diff,
			}
		}
	}

	return best
}

// subscriptionSimilarity compares the subscription name and merchant with
// both text fields of the transaction.
func subscriptionSimilarity(tx *recurring.Transaction, sub *recurring.Subscription) int {
	labels := []string{sub.Name}
	if sub.Merchant != nil {
		labels = append(labels, *sub.Merchant)
	}

	best := 0
	for _, label := range labels {
		best = max(best,
			similarity.Score(label, tx.MerchantText()),
			similarity.Score(label, tx.DescriptionText()),
		)
	}
	return best
}
