// Package matcher finds historical transactions that look like earlier
// charges of the same subscription, and links transactions to existing
// subscriptions.
//
// Candidate selection is two-gated:
//   - Amount must be within 10% of the source amount (configurable, inclusive)
//   - At least one text strategy must accept the pair
//
// Text strategies run in precedence order (merchant, description, the two
// cross-field comparisons, then a price-change fallback) and the highest
// score among the strategies that matched wins.
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates := m.FindCandidates(source, history)
//	for _, tx := range candidates.Transactions {
//		// oldest first, source included
//	}
package matcher

import (
	"sort"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// Matcher matches a source transaction against transaction history
type Matcher struct {
	config     Config
	strategies []Strategy
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config:     config,
		strategies: DefaultStrategies(config.PriceChangeTolerance),
	}
}

// Config returns the matcher configuration
func (m *Matcher) Config() Config {
	return m.config
}

// Strategies returns the text strategies in precedence order
func (m *Matcher) Strategies() []Strategy {
	return m.strategies
}

// FindCandidates selects the history transactions that plausibly belong to
// the same recurring charge as source. The returned Transactions list always
// contains source and is sorted by booking date.
func (m *Matcher) FindCandidates(source *recurring.Transaction, history []*recurring.Transaction) *Candidates {
	result := &Candidates{
		Transactions: []*recurring.Transaction{source},
	}

	seen := map[string]bool{source.ID: true}

	for _, tx := range history {
		if tx == nil || seen[tx.ID] {
			continue
		}

		// History is user-scoped by the caller; re-check cheaply
		if tx.UserID != source.UserID || !tx.IsExpense() {
			continue
		}

		// Amount gate runs before any text comparison
		if !amountWithin(source.Amount, tx.Amount, m.config.AmountTolerance) {
			continue
		}

		score, strategy, exact, ok := m.ScoreText(source, tx)
		if !ok {
			continue
		}

		seen[tx.ID] = true
		result.Transactions = append(result.Transactions, tx)
		result.Matches = append(result.Matches, Candidate{
			Transaction: tx,
			Score:       score,
			Strategy:    strategy,
			AmountDiff:  amountDiff(source.Amount, tx.Amount),
		})
		if exact {
			result.ExactMerchant = true
		}
	}

	sort.SliceStable(result.Transactions, func(i, j int) bool {
		a, b := result.Transactions[i], result.Transactions[j]
		if a.BookedAt.Equal(b.BookedAt) {
			return a.ID < b.ID
		}
		return a.BookedAt.Before(b.BookedAt)
	})

	return result
}

// ScoreText runs every strategy and returns the highest score among those
// that matched, the winning strategy name, and whether the merchant matched exactly.
func (m *Matcher) ScoreText(source, candidate *recurring.Transaction) (int, string, bool, bool) {
	bestScore := -1
	bestStrategy := ""
	exactMerchant := false

	for _, s := range m.strategies {
		res := s.Match(source, candidate)
		if !res.Matched {
			continue
		}
		if s.Name == StrategyMerchant && res.Exact {
			exactMerchant = true
		}
		if res.Score > bestScore {
			bestScore = res.Score
			bestStrategy = s.Name
		}
	}

	if bestScore < 0 {
		return 0, "", false, false
	}
	return bestScore, bestStrategy, exactMerchant, true
}
