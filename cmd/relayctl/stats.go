package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show local client database statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	core, closeFn, err := buildCore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := core.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	fmt.Printf("stored notes: %d\n", stats.TotalNotes)
	fmt.Printf("distinct tags: %d\n", stats.DistinctTags)
	return nil
}
