package cli

import (
	"errors"
	"flag"
	"io"
	"time"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Port       int // 0 keeps the configured port
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags(args []string) (*ServeFlags, error) {
	flags := &ServeFlags{}
	fs := newFlagSet("api")
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: config.yaml or environment)")
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// DetectFlags holds the CLI flags for the detect command.
type DetectFlags struct {
	ConfigPath    string
	UserID        string
	TransactionID string
	ImportFile    string // JSON file in the /api/transactions/import format
	Match         bool   // Also match against active subscriptions
	JSON          bool
	Verbose       bool
}

// ParseDetectFlags parses command line flags for the detect command.
func ParseDetectFlags(args []string) (*DetectFlags, error) {
	flags := &DetectFlags{}
	fs := newFlagSet("detect")
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: config.yaml or environment)")
	fs.StringVar(&flags.UserID, "user", "", "User id owning the transactions (required)")
	fs.StringVar(&flags.TransactionID, "tx", "", "Source transaction id (required)")
	fs.StringVar(&flags.ImportFile, "import", "", "Import transactions from a JSON file before detecting")
	fs.BoolVar(&flags.Match, "match", false, "Also match the transaction against active subscriptions")
	fs.BoolVar(&flags.JSON, "json", false, "Print the result as JSON")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if flags.UserID == "" {
		return nil, errors.New("-user is required")
	}
	if flags.TransactionID == "" {
		return nil, errors.New("-tx is required")
	}
	return flags, nil
}

// MintTokenFlags holds the CLI flags for the mint-token command.
type MintTokenFlags struct {
	ConfigPath string
	UserID     string
	TTL        time.Duration // 0 keeps the configured TTL
}

// ParseMintTokenFlags parses command line flags for the mint-token command.
func ParseMintTokenFlags(args []string) (*MintTokenFlags, error) {
	flags := &MintTokenFlags{}
	fs := newFlagSet("mint-token")
	fs.StringVar(&flags.ConfigPath, "config", "", "Configuration file path (default: config.yaml or environment)")
	fs.StringVar(&flags.UserID, "user", "", "User id to issue the token for (required)")
	fs.DurationVar(&flags.TTL, "ttl", 0, "Token lifetime (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if flags.UserID == "" {
		return nil, errors.New("-user is required")
	}
	return flags, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
