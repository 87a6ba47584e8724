package watch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Resync schedules periodic full recompiles while watch mode runs, as a
// safety net against missed file-system events.
type Resync struct {
	scheduler gocron.Scheduler
}

// StartResync runs fn every interval until Stop is called.
func StartResync(interval time.Duration, fn func()) (*Resync, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
		gocron.WithName("full-resync"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule full resync: %w", err)
	}
	s.Start()
	slog.Info("Scheduled periodic full resync", slog.Duration("interval", interval))
	return &Resync{scheduler: s}, nil
}

// Stop shuts the scheduler down.
func (r *Resync) Stop() error {
	return r.scheduler.Shutdown()
}
