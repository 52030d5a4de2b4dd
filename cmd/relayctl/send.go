package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaynote/relaynode/internal/noteproto"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a note to the relay",
	Long: `Send reads the note details from --file (or stdin) and publishes it
under the given tag.

Examples:
  relayctl send --tag 42 --file note.bin
  cat note.bin | relayctl send --tag 42`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().Uint32("tag", 0, "Note tag (required)")
	sendCmd.Flags().String("file", "", "File containing the note details; reads stdin if omitted")
	_ = sendCmd.MarkFlagRequired("tag")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetUint32("tag")
	file, _ := cmd.Flags().GetString("file")

	details, err := readInput(file)
	if err != nil {
		return fmt.Errorf("failed to read note details: %w", err)
	}

	var id noteproto.ID
	if _, err := readRandom(id[:]); err != nil {
		return fmt.Errorf("failed to generate note id: %w", err)
	}
	header := noteproto.EncodeHeader(id, tag, nil)

	ctx := context.Background()
	core, closeFn, err := buildCore(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	gotID, err := core.SendNote(ctx, header, details)
	if err != nil {
		return fmt.Errorf("send note failed: %w", err)
	}

	fmt.Printf("sent note %s (tag %d)\n", gotID, tag)
	return nil
}

func readInput(file string) ([]byte, error) {
	if file == "" {
		return readAllStdin()
	}
	return os.ReadFile(file)
}
