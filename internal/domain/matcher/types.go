package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// Config holds matcher configuration
type Config struct {
	AmountTolerance      decimal.Decimal // Detection gate, fraction of source amount (default: 0.10)
	PriceChangeTolerance decimal.Decimal // Fallback for price changes (default: 0.03)
	LinkTolerance        decimal.Decimal // Linking to an active subscription (default: 0.05)
	LinkMinSimilarity    int             // Name/merchant similarity for linking (default: 70)
	LookbackMonths       int             // History window (default: 24)
	MaxHistoryRows       int             // Cap on scanned rows (default: 2000)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountTolerance:      decimal.NewFromFloat(0.10),
		PriceChangeTolerance: decimal.NewFromFloat(0.03),
		LinkTolerance:        decimal.NewFromFloat(0.05),
		LinkMinSimilarity:    70,
		LookbackMonths:       24,
		MaxHistoryRows:       2000,
	}
}

// StrategyResult is what a single text comparison strategy reports.
type StrategyResult struct {
	Matched bool
	Score   int
	Exact   bool // Exact field match (used for the merchant confidence bonus)
}

// Strategy compares one pair of text fields between source and candidate.
type Strategy struct {
	Name  string
	Match func(source, candidate *recurring.Transaction) StrategyResult
}

// Candidate is a history transaction that passed both gates.
type Candidate struct {
	Transaction *recurring.Transaction
	Score       int
	Strategy    string          // Name of the winning strategy
	AmountDiff  decimal.Decimal // Absolute magnitude difference to the source
}

// Candidates is the outcome of FindCandidates.
type Candidates struct {
	// Transactions holds the source and every accepted candidate, oldest first
	Transactions []*recurring.Transaction
	Matches      []Candidate
	// ExactMerchant is true when any candidate matched the source merchant exactly
	ExactMerchant bool
}
