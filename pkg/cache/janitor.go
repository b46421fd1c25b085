package cache

import (
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// janitor periodically removes expired entries.
func (c *Cache[K, V]) janitor() {
	ticker := time.NewTicker(c.opts.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// schedule runs Sweep on a cron schedule until Close.
func (c *Cache[K, V]) schedule(spec string) {
	sched, err := ParseSchedule(spec)
	if err != nil {
		c.opts.logger.Error("sweep schedule disabled", slog.String("schedule", spec), slog.Any("error", err))
		return
	}

	c.cron = cron.New()
	c.cron.Schedule(sched, cron.FuncJob(func() { c.Sweep() }))
	c.cron.Start()
}

// ParseSchedule validates a sweep schedule: a standard five-field cron
// expression or a descriptor such as "@hourly" or "@every 30s".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return sched, nil
}
