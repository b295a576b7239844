package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/subtrack/internal/domain/recurring"
)

// PrintDetection prints a detection result as a short report
func PrintDetection(w io.Writer, result *recurring.DetectionResult) {
	frequency := "none"
	if result.DetectedFrequency != nil {
		frequency = string(*result.DetectedFrequency)
	}

	fmt.Fprintf(w, "Transaction: %s\n", result.TransactionID)
	fmt.Fprintf(w, "Frequency: %s | Confidence: %d%%\n", frequency, result.Confidence)
	fmt.Fprintf(w, "Suggested: %q %s %s\n", result.SuggestedName, result.SuggestedAmount.StringFixed(2), result.Currency)
	fmt.Fprintln(w, strings.Repeat("-", 60))

	for _, m := range result.MatchedTransactions {
		label := ""
		switch {
		case m.Merchant != nil:
			label = *m.Merchant
		case m.Description != nil:
			label = *m.Description
		}
		fmt.Fprintf(w, "  %s  %10s  %-30s %s\n", m.BookedAt.Format("2006-01-02"), m.Amount.StringFixed(2), label, m.ID)
	}
	fmt.Fprintf(w, "Matched: %d\n", len(result.MatchedTransactions))
}

// PrintMatch prints the active subscription a transaction belongs to, if any
func PrintMatch(w io.Writer, match *recurring.SubscriptionMatch) {
	if match == nil {
		fmt.Fprintln(w, "Active subscription: none")
		return
	}
	fmt.Fprintf(w, "Active subscription: %s (%s) | Similarity: %d%% | Amount diff: %s\n",
		match.Subscription.Name,
		match.Subscription.ID,
		match.Similarity,
		match.AmountDiff.StringFixed(2))
}

// PrintJSON writes v as indented JSON
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
