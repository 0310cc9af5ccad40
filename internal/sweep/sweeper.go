package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smart-parking-backend/config"
	"smart-parking-backend/internal/store"
)

// Sweeper periodically persists the expired transition for active bookings
// whose window has elapsed. Read paths already report such bookings as
// expired, so the sweep only keeps stored rows (and the legacy slot mirror)
// in step with the observable state.
type Sweeper struct {
	cfg   *config.SweepConfig
	store store.Store
	log   zerolog.Logger
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(cfg *config.SweepConfig, s store.Store, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		cfg:   cfg,
		store: s,
		log:   log.With().Str("component", "sweep").Logger(),
	}
}

// Run sweeps on the configured interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info().Msg("expiry sweep disabled")
		return
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.cfg.Interval).Msg("expiry sweep started")
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			s.log.Info().Msg("expiry sweep stopped")
			return
		}
	}
}

// SweepOnce runs a single sweep pass.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	expired, err := s.store.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if expired > 0 {
		s.log.Info().Int64("expired", expired).Msg("expired overdue bookings")
	}
}
