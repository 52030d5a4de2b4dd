package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream notes for a tag as they arrive",
	Long: `Stream opens a live subscription against the relay node, resuming
from this client's locally stored cursor, and prints each new note as
it arrives until interrupted.

Example:
  relayctl stream --tag 42`,
	RunE: runStream,
}

func init() {
	streamCmd.Flags().Uint32("tag", 0, "Note tag to stream (required)")
	_ = streamCmd.MarkFlagRequired("tag")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetUint32("tag")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	core, closeFn, err := buildCore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	notes, err := core.StreamNotes(ctx, tag)
	if err != nil {
		return fmt.Errorf("stream notes failed: %w", err)
	}

	for n := range notes {
		fmt.Printf("cursor=%d bytes=%d\n", n.Cursor, len(n.Details))
	}
	return nil
}
