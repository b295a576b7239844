package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/eshaffer321/subtrack/internal/api/dto"
	"github.com/eshaffer321/subtrack/internal/domain/recurring"
	"github.com/eshaffer321/subtrack/internal/infrastructure/config"
	"github.com/eshaffer321/subtrack/internal/infrastructure/logging"
)

// RunDetect runs detection for one transaction and prints the outcome to out.
func RunDetect(ctx context.Context, cfg *config.Config, flags *DetectFlags, out io.Writer) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "detect")

	app, err := NewApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx = recurring.WithUserID(ctx, flags.UserID)

	if flags.ImportFile != "" {
		txs, err := readImportFile(flags.ImportFile)
		if err != nil {
			return err
		}
		inserted, err := app.Detection.ImportTransactions(ctx, txs)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		logger.Info("imported transactions", "received", len(txs), "inserted", inserted)
	}

	result, err := app.Detection.DetectSubscription(ctx, flags.TransactionID)
	if err != nil {
		return err
	}

	var match *recurring.SubscriptionMatch
	if flags.Match {
		if match, err = app.Detection.MatchActiveSubscription(ctx, flags.TransactionID); err != nil {
			return err
		}
	}

	if flags.JSON {
		return PrintJSON(out, detectOutput{
			Detection: dto.NewDetectionResponse(result),
			Match:     matchOutput(flags.Match, match),
		})
	}

	PrintDetection(out, result)
	if flags.Match {
		PrintMatch(out, match)
	}
	return nil
}

type detectOutput struct {
	Detection dto.DetectionResponse          `json:"detection"`
	Match     *dto.SubscriptionMatchResponse `json:"match,omitempty"`
}

func matchOutput(requested bool, match *recurring.SubscriptionMatch) *dto.SubscriptionMatchResponse {
	if !requested {
		return nil
	}
	resp := dto.NewSubscriptionMatchResponse(match)
	return &resp
}

// readImportFile loads transactions in the same shape the import endpoint accepts
func readImportFile(path string) ([]*recurring.Transaction, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var req dto.ImportRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	txs := make([]*recurring.Transaction, 0, len(req.Transactions))
	for i, item := range req.Transactions {
		tx, err := item.ToTransaction()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
