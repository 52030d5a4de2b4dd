package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relaynote/relaynode/internal/client"
	"github.com/relaynote/relaynode/internal/client/clientdb"
	"github.com/relaynote/relaynode/internal/client/grpctransport"
)

// buildCore wires a client.Core from the command's persistent flags.
// Callers must call the returned close func when done.
func buildCore(ctx context.Context, cmd *cobra.Command) (*client.Core, func(), error) {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	dbPath, _ := cmd.Flags().GetString("database")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	db, err := clientdb.Open(ctx, dbPath)
	if err != nil {
		return nil, nil, err
	}

	transport, err := grpctransport.Dial(endpoint, timeout)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	core := client.New(transport, db, zerolog.Nop())
	closeFn := func() {
		transport.Close()
		db.Close()
	}
	return core, closeFn, nil
}
