package orch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Sweep deletes every persisted room with no live presence whose last
// update is older than grace. Rooms already deleted elsewhere are skipped
// silently.
func (o *Orchestrator) Sweep(ctx context.Context, now time.Time, grace time.Duration) (core.Effects, error) {
	var fx core.Effects
	rooms, err := o.Rooms.FindAll(ctx)
	if err != nil {
		return fx, fmt.Errorf("list rooms: %w", err)
	}

	var errs []error
	for _, room := range rooms {
		if now.Sub(room.UpdatedAt) < grace {
			continue
		}
		if o.Presence.Count(room.ID) > 0 {
			continue
		}
		// A Join may still land between the presence check and the delete.
		// The room is gone either way, so closeRoom evicts whoever got in.
		deleted, err := o.Rooms.DeleteByID(ctx, room.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("delete room %s: %w", room.ID, err))
			continue
		}
		if !deleted {
			continue
		}
		if n := o.Presence.Count(room.ID); n > 0 {
			log.Warn().Str("module", "orch.reaper").Str("room", string(room.ID)).Int("present", n).
				Msg("room joined while being reaped")
		}
		o.closeRoom(room.ID, &fx)
		metrics.Reaped.Inc()
		log.Info().Str("module", "orch.reaper").Str("room", string(room.ID)).
			Dur("idle", now.Sub(room.UpdatedAt)).Msg("idle room reaped")
	}
	return fx, errors.Join(errs...)
}

// Reaper runs Sweep on a fixed interval and emits the resulting closures.
type Reaper struct {
	Orch     *Orchestrator
	Emitter  core.Emitter
	Interval time.Duration
	Grace    time.Duration
}

func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "orch.reaper").Dur("interval", r.Interval).Dur("grace", r.Grace).Msg("reaper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.reaper").Msg("reaper stopped")
			return nil
		case now := <-ticker.C:
			fx, err := r.Orch.Sweep(ctx, now, r.Grace)
			if err != nil {
				log.Error().Err(err).Str("module", "orch.reaper").Msg("sweep failed")
			}
			if len(fx) > 0 {
				r.Emitter.Emit(fx)
			}
		}
	}
}
