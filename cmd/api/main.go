package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eshaffer321/subtrack/internal/cli"
)

func main() {
	flags, err := cli.ParseServeFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunServe(context.Background(), cfg, flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
