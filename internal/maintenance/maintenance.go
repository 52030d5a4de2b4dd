// Package maintenance runs the relay's periodic retention sweep: the
// only component allowed to delete rows from the Store.
package maintenance

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/relaynote/relaynode/internal/metrics"
	"github.com/relaynote/relaynode/internal/store"
)

// DefaultInterval is the pause between sweeps, matching the relay's
// original retention loop.
const DefaultInterval = 10 * time.Minute

// Maintenance periodically deletes notes older than RetentionDays from
// a Store. Zero RetentionDays purges every row on every sweep.
type Maintenance struct {
	store         store.Store
	retentionDays int
	interval      time.Duration
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// New builds a Maintenance loop. interval defaults to DefaultInterval
// when zero.
func New(s store.Store, retentionDays int, interval time.Duration, m *metrics.Metrics, log zerolog.Logger) *Maintenance {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Maintenance{
		store:         s,
		retentionDays: retentionDays,
		interval:      interval,
		metrics:       m,
		log:           log.With().Str("component", "maintenance").Logger(),
	}
}

// Run sweeps repeatedly until ctx is cancelled. A failed sweep is
// logged and retried after the usual interval rather than aborting the
// loop: a single bad sweep should never take the node's retention
// guarantee offline.
func (m *Maintenance) Run(ctx context.Context) {
	for {
		if err := m.step(ctx); err != nil {
			m.log.Error().Err(err).Msg("retention sweep failed")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

func (m *Maintenance) step(ctx context.Context) error {
	timer := m.metrics.NewTimer("retention_sweep")

	removed, err := m.store.RetentionSweep(ctx, m.retentionDays)
	if err != nil {
		timer.Finish("error")
		return err
	}

	timer.Finish("ok")
	m.metrics.RetentionSweepRows.Observe(float64(removed))
	m.log.Info().Int64("rows_removed", removed).Msg("retention sweep complete")
	return nil
}
