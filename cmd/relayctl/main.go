// Command relayctl is a thin CLI front-end over the client package: it
// sends, fetches, streams and inspects notes against a relay node.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "relayctl",
	Short: "relayctl talks to a private-note relay node",
	Long: `relayctl is a command-line client for the relay node: send and
fetch notes, open a live stream, and inspect local client state.`,
}

func init() {
	rootCmd.PersistentFlags().String("endpoint", "127.0.0.1:8080", "Relay node gRPC endpoint")
	rootCmd.PersistentFlags().String("database", "relay-client.db", "Local client database path")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Per-call timeout; 0 uses the client default")
}
