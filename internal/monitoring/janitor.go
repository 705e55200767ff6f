package monitoring

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/services"
)

// Janitor periodically retries queued blob evictions and prunes old
// activity events.
type Janitor struct {
	maint     services.MaintenanceServiceProvider
	events    services.EventServiceProvider
	schedule  cron.Schedule
	retention time.Duration
	nextRun   time.Time
	ticker    *time.Ticker
	done      chan bool
}

// NewJanitor creates a janitor from a standard cron expression (descriptors
// like "@hourly" work too).
func NewJanitor(maint services.MaintenanceServiceProvider, events services.EventServiceProvider,
	scheduleExpr string, retention time.Duration) (*Janitor, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, err
	}
	return &Janitor{
		maint:     maint,
		events:    events,
		schedule:  schedule,
		retention: retention,
		done:      make(chan bool),
	}, nil
}

// Run starts the janitor's ticking loop.
func (j *Janitor) Run() {
	log.Info().Msg("Starting background janitor")
	j.ticker = time.NewTicker(1 * time.Minute)
	defer j.ticker.Stop()

	// Run once immediately on start
	j.runOnce()
	j.nextRun = j.schedule.Next(time.Now())

	for {
		select {
		case <-j.done:
			log.Info().Msg("Stopping background janitor")
			return
		case now := <-j.ticker.C:
			if now.After(j.nextRun) {
				j.runOnce()
				j.nextRun = j.schedule.Next(now)
			}
		}
	}
}

// Stop halts the janitor.
func (j *Janitor) Stop() {
	j.done <- true
}

func (j *Janitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	retried, dropped, err := j.maint.RetryEvictions(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Janitor: blob eviction retry failed")
	} else if retried > 0 || dropped > 0 {
		log.Info().Int("retried", retried).Int("dropped", dropped).Msg("Janitor: processed blob evictions")
	}

	pruned, err := j.events.PruneOlderThan(ctx, time.Now().Add(-j.retention))
	if err != nil {
		log.Error().Err(err).Msg("Janitor: event pruning failed")
	} else if pruned > 0 {
		log.Info().Int64("pruned", pruned).Msg("Janitor: pruned old events")
	}
}
