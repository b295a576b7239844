package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/subtrack/internal/cli"
)

func main() {
	flags, err := cli.ParseMintTokenFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: mint-token -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunMintToken(cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
