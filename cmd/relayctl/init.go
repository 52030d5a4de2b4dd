package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaynote/relaynode/internal/client/clientdb"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and migrate the local client database",
	Long: `Init opens the local client database, applying any pending
migrations, and exits. Every other subcommand does this automatically;
init exists to set up the database file ahead of time.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("database")

	ctx := context.Background()
	db, err := clientdb.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}
	defer db.Close()

	fmt.Printf("initialized client database at %s\n", dbPath)
	return nil
}
