package main

import (
	"context"
	"fmt"
	"os"

	"github.com/eshaffer321/subtrack/internal/cli"
)

func main() {
	flags, err := cli.ParseDetectFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: detect -user <id> -tx <transaction id> [-import file.json] [-match] [-json]")
		os.Exit(2)
	}

	cfg, err := cli.LoadConfig(flags.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cli.RunDetect(context.Background(), cfg, flags, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
