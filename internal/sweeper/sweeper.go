// Package sweeper purges messages that outlived the retention window.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/store"
)

// Sweeper deletes messages older than the TTL on a fixed interval. A failed
// sweep is logged and retried on the next tick; it never surfaces to clients.
type Sweeper struct {
	store    store.MessageStore
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *zerolog.Logger
}

// New constructs a sweeper using the wall clock.
func New(st store.MessageStore, ttl, interval time.Duration, logger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    st,
		ttl:      ttl,
		interval: interval,
		now:      time.Now,
		log:      logger,
	}
}

// WithClock overrides the time source. Tests pin it to a virtual clock.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run blocks, sweeping every interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce deletes all messages created before now − TTL, across all rooms.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.ttl)
	removed, err := s.store.DeleteMessagesBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Time("cutoff", cutoff).Msg("retention sweep failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("retention sweep complete")
	} else {
		s.log.Debug().Time("cutoff", cutoff).Msg("retention sweep found nothing to remove")
	}
}
