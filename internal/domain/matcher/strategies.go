package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/domain/similarity"
)

// Strategy names, in precedence order
const (
	StrategyMerchant            = "merchant"
	StrategyDescription         = "description"
	StrategyMerchantDescription = "merchant_description"
	StrategyDescriptionMerchant = "description_merchant"
	StrategyPriceChange         = "price_change"
)

// Thresholds for each strategy
const (
	merchantThreshold        = 70
	merchantContainsScore    = 85
	descriptionThreshold     = 50
	descriptionContainsScore = 80
	crossThreshold           = 60
	crossContainsScore       = 75

	priceChangeMerchantThreshold = 50
	priceChangeTextThreshold     = 40
	priceChangeScore             = 60

	// minContainsLen is the minimum length of both sides for a containment match
	minContainsLen = 4
)

type fieldFunc func(*recurring.Transaction) string

func merchantOf(tx *recurring.Transaction) string    { return tx.MerchantText() }
func descriptionOf(tx *recurring.Transaction) string { return tx.DescriptionText() }

// DefaultStrategies returns the text strategies in precedence order.
// priceTolerance bounds the amount difference accepted by the price-change fallback.
func DefaultStrategies(priceTolerance decimal.Decimal) []Strategy {
	return []Strategy{
		{Name: StrategyMerchant, Match: sameField(merchantOf, merchantThreshold, merchantContainsScore)},
		{Name: StrategyDescription, Match: sameField(descriptionOf, descriptionThreshold, descriptionContainsScore)},
		{Name: StrategyMerchantDescription, Match: crossField(merchantOf, descriptionOf)},
		{Name: StrategyDescriptionMerchant, Match: crossField(descriptionOf, merchantOf)},
		{Name: StrategyPriceChange, Match: priceChange(priceTolerance)},
	}
}

// sameField compares the same field on both sides: exact, then similarity, then containment.
func sameField(field fieldFunc, threshold, containsScore int) func(source, candidate *recurring.Transaction) StrategyResult {
	return func(source, candidate *recurring.Transaction) StrategyResult {
		a, b := field(source), field(candidate)
		if a == "" || b == "" {
			return StrategyResult{}
		}
		if similarity.Equal(a, b) {
			return StrategyResult{Matched: true, Score: similarity.ExactScore, Exact: true}
		}
		if score := similarity.Score(a, b); score >= threshold {
			return StrategyResult{Matched: true, Score: score}
		}
		if similarity.Contains(a, b, minContainsLen) {
			return StrategyResult{Matched: true, Score: containsScore}
		}
		return StrategyResult{}
	}
}

// crossField compares one field of the source with a different field of the candidate.
func crossField(sourceField, candidateField fieldFunc) func(source, candidate *recurring.Transaction) StrategyResult {
	return func(source, candidate *recurring.Transaction) StrategyResult {
		a, b := sourceField(source), candidateField(candidate)
		if a == "" || b == "" {
			return StrategyResult{}
		}
		if score := similarity.Score(a, b); score >= crossThreshold {
			return StrategyResult{Matched: true, Score: score}
		}
		if similarity.Contains(a, b, minContainsLen) {
			return StrategyResult{Matched: true, Score: crossContainsScore}
		}
		return StrategyResult{}
	}
}

// priceChange accepts a near-identical amount with weak text evidence, which
// covers a subscription whose price or statement text changed slightly.
func priceChange(tolerance decimal.Decimal) func(source, candidate *recurring.Transaction) StrategyResult {
	return func(source, candidate *recurring.Transaction) StrategyResult {
		if !amountWithin(source.Amount, candidate.Amount, tolerance) {
			return StrategyResult{}
		}

		sm, sd := merchantOf(source), descriptionOf(source)
		cm, cd := merchantOf(candidate), descriptionOf(candidate)

		partial := similarity.Score(sm, cm) >= priceChangeMerchantThreshold ||
			similarity.Score(sd, cd) >= priceChangeTextThreshold ||
			similarity.Score(sm, cd) >= priceChangeTextThreshold ||
			similarity.Score(sd, cm) >= priceChangeTextThreshold ||
			similarity.Contains(sm, cm, minContainsLen) ||
			similarity.Contains(sd, cd, minContainsLen) ||
			similarity.Contains(sm, cd, minContainsLen) ||
			similarity.Contains(sd, cm, minContainsLen)

		if !partial {
			return StrategyResult{}
		}
		return StrategyResult{Matched: true, Score: priceChangeScore}
	}
}

// amountWithin reports |mag(a) - mag(b)| <= tolerance * mag(a), inclusive.
func amountWithin(a, b, tolerance decimal.Decimal) bool {
	return amountDiff(a, b).LessThanOrEqual(a.Abs().Mul(tolerance))
}

func amountDiff(a, b decimal.Decimal) decimal.Decimal {
	return a.Abs().Sub(b.Abs()).Abs()
}
