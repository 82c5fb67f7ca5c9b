package meta

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow)
// plus descriptors such as @hourly.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Scheduler periodically resyncs DocType definitions from a directory.
type Scheduler struct {
	registry *Registry
	dir      string
	logger   *zap.SugaredLogger
	cron     *cron.Cron
}

// NewScheduler returns a Scheduler that syncs dir into registry on the cron schedule.
func NewScheduler(registry *Registry, dir, schedule string, logger *zap.SugaredLogger) (*Scheduler, error) {
	if registry == nil {
		return nil, fmt.Errorf("meta: scheduler: registry is required")
	}
	if dir == "" {
		return nil, fmt.Errorf("meta: scheduler: schema dir is required")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Scheduler{
		registry: registry,
		dir:      dir,
		logger:   logger,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("meta: scheduler: schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start runs the scheduler until ctx is cancelled. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

// run performs one resync. Failures are logged; the next tick retries.
func (s *Scheduler) run() {
	res, err := s.registry.SyncDir(context.Background(), s.dir)
	if err != nil {
		s.logger.Errorw("schema resync failed", "dir", s.dir, "error", err)
		return
	}
	s.logger.Infow("schema resynced",
		"dir", s.dir,
		"created", len(res.Created),
		"updated", len(res.Updated),
		"fields", res.Fields,
	)
}
