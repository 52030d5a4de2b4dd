package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete locally stored notes older than the retention window",
	RunE:  runCleanup,
}

func init() {
	cleanupCmd.Flags().Int("retention-days", 30, "Delete stored notes older than this many days; 0 deletes everything")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	retentionDays, _ := cmd.Flags().GetInt("retention-days")

	ctx := context.Background()
	core, closeFn, err := buildCore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := core.Cleanup(ctx, retentionDays)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	fmt.Printf("removed %d local record(s) (stored notes and fetched-note entries)\n", removed)
	return nil
}
