// Package frequency infers how often a charge recurs from the dates it was booked on.
//
// The inference is a pure function of the gap list:
//  1. consecutive day gaps are computed from the sorted dates
//  2. with three or more gaps, outliers beyond two standard deviations are dropped
//  3. the mean gap is classified into a fixed bucket (weekly..yearly)
//  4. confidence blends closeness to the bucket target with gap consistency,
//     then adds bonuses for the number of matches and an exact merchant hit
package frequency

import (
	"math"
	"sort"
	"time"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// Bucket is an inclusive range of mean gaps (in days) mapped to a frequency.
type Bucket struct {
	Frequency recurring.Frequency
	Min       float64
	Max       float64
	Target    float64
}

// Buckets are checked in order; ranges do not overlap.
var Buckets = []Bucket{
	{Frequency: recurring.Weekly, Min: 5, Max: 9, Target: 7},
	{Frequency: recurring.Biweekly, Min: 12, Max: 16, Target: 14},
	{Frequency: recurring.Monthly, Min: 26, Max: 34, Target: 30},
	{Frequency: recurring.Quarterly, Min: 80, Max: 100, Target: 90},
	{Frequency: recurring.Yearly, Min: 350, Max: 380, Target: 365},
}

// Confidence bonuses
const (
	MatchBonusPerTransaction = 10
	MaxMatchBonus            = 30
	ExactMerchantBonus       = 10

	// outlierStdDevs is the distance beyond which a gap is discarded
	outlierStdDevs = 2.0
	// minGapsForOutliers is the sample size below which no filtering happens
	minGapsForOutliers = 3
	// minGaps is the number of gaps needed to infer anything
	minGaps = 2
)

// Result is the outcome of an inference. Frequency is nil when no bucket fits.
type Result struct {
	Frequency   *recurring.Frequency
	Confidence  int
	MeanGap     float64
	StdDev      float64
	MatchScore  float64
	Consistency float64
	Gaps        []float64 // After outlier filtering
}

// Infer classifies the recurrence of dates. exactMerchant adds a flat bonus
// when the underlying matches included an exact merchant hit.
func Infer(dates []time.Time, exactMerchant bool) Result {
	matchCount := 0
	for _, d := range dates {
		if !d.IsZero() {
			matchCount++
		}
	}
	return InferFromGaps(Gaps(dates), matchCount, exactMerchant)
}

// Gaps returns the consecutive day gaps of dates after sorting them.
// Zero dates are skipped.
func Gaps(dates []time.Time) []float64 {
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		days = append(days, calendarDay(d))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	gaps := make([]float64, 0, len(days))
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, math.Round(days[i].Sub(days[i-1]).Hours()/24))
	}
	return gaps
}

// InferFromGaps classifies a precomputed gap list. matchCount is the number
// of matched transactions the gaps came from.
func InferFromGaps(gaps []float64, matchCount int, exactMerchant bool) Result {
	positive := make([]float64, 0, len(gaps))
	for _, g := range gaps {
		if g > 0 && !math.IsNaN(g) && !math.IsInf(g, 0) {
			positive = append(positive, g)
		}
	}
	if len(positive) < minGaps {
		return Result{}
	}

	filtered := FilterOutliers(positive)
	mean, stdDev := meanStdDev(filtered)

	result := Result{
		MeanGap: mean,
		StdDev:  stdDev,
		Gaps:    filtered,
	}

	bucket, matchScore, ok := Classify(mean)
	if !ok {
		return result
	}

	consistency := 0.0
	if mean > 0 {
		consistency = math.Max(0, 1-stdDev/mean)
	}

	frequency := bucket.Frequency
	result.Frequency = &frequency
	result.MatchScore = matchScore
	result.Consistency = consistency
	result.Confidence = Confidence(matchScore, consistency, matchCount, exactMerchant)
	return result
}

// Classify returns the bucket whose range contains mean and whose target is closest.
func Classify(mean float64) (Bucket, float64, bool) {
	var best Bucket
	bestScore := math.Inf(-1)
	found := false

	for _, b := range Buckets {
		if mean < b.Min || mean > b.Max {
			continue
		}
		score := 1 - math.Abs(mean-b.Target)/((b.Max-b.Min)/2)
		if score > bestScore {
			best = b
			bestScore = score
			found = true
		}
	}

	if !found {
		return Bucket{}, 0, false
	}
	return best, bestScore, true
}

// Confidence combines the match and consistency scores (both 0..1) with the
// count and exact-merchant bonuses, clamped to [0,100].
func Confidence(matchScore, consistency float64, matchCount int, exactMerchant bool) int {
	confidence := int(math.Round(100 * (0.5*matchScore + 0.5*consistency)))

	if matchCount > 1 {
		confidence += min(MatchBonusPerTransaction*(matchCount-1), MaxMatchBonus)
	}
	if exactMerchant {
		confidence += ExactMerchantBonus
	}

	return max(0, min(100, confidence))
}

// FilterOutliers drops gaps farther than two population standard deviations
// from the median gap. Lists shorter than three or with zero spread are
// returned unchanged.
func FilterOutliers(gaps []float64) []float64 {
	if len(gaps) < minGapsForOutliers {
		return gaps
	}

	_, stdDev := meanStdDev(gaps)
	if stdDev == 0 {
		return gaps
	}

	center := median(gaps)
	kept := make([]float64, 0, len(gaps))
	for _, g := range gaps {
		if math.Abs(g-center) <= outlierStdDevs*stdDev {
			kept = append(kept, g)
		}
	}

	if len(kept) == 0 {
		return gaps
	}
	return kept
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var squares float64
	for _, v := range values {
		squares += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(squares / float64(len(values)))
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// calendarDay drops the time of day so gaps count whole calendar days.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
