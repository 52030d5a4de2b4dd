package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch new notes for a tag",
	Long: `Fetch resumes from this client's locally stored cursor for the
given tag and prints every note not already seen.

Example:
  relayctl fetch --tag 42`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Uint32("tag", 0, "Note tag to fetch (required)")
	_ = fetchCmd.MarkFlagRequired("tag")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetUint32("tag")

	ctx := context.Background()
	core, closeFn, err := buildCore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	notes, err := core.FetchNotes(ctx, tag)
	if err != nil {
		return fmt.Errorf("fetch notes failed: %w", err)
	}

	for _, n := range notes {
		fmt.Printf("cursor=%d bytes=%d\n", n.Cursor, len(n.Details))
	}
	fmt.Printf("%d new note(s)\n", len(notes))
	return nil
}
