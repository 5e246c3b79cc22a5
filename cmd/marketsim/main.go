// marketsim - simulated multi-asset market with paper trading and automation
package main

import (
	"fmt"
	"os"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/cli"
	"github.com/danielweickdag/kairo-quantum-sub006/internal/logging"
)

func main() {
	rootCmd := cli.NewRootCmd(logging.NewLogger())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
