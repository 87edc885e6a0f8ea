package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Evictor drops stores that have not been used since cutoff.
type Evictor interface {
	EvictIdle(cutoff time.Time) int
}

// Sweeper periodically releases per-owner stores that went idle so the
// registry does not grow with every project and user ever seen.
type Sweeper struct {
	evictor  Evictor
	idleTTL  time.Duration
	interval time.Duration
	now      func() time.Time
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(evictor Evictor, idleTTL, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval < time.Second {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{
		evictor:  evictor,
		idleTTL:  idleTTL,
		interval: interval,
		now:      time.Now,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = s.cron.AddFunc(schedule, func() { s.Sweep() })
	return s
}

// Start launches the scheduler. A non-positive idle TTL disables sweeping.
func (s *Sweeper) Start() {
	if s.idleTTL <= 0 {
		s.logger.Info("store sweeper disabled")
		return
	}
	s.cron.Start()
	s.logger.Info("store sweeper started",
		zap.Duration("idle_ttl", s.idleTTL),
		zap.Duration("interval", s.interval))
}

// Stop waits for a running sweep or ctx, whichever ends first.
func (s *Sweeper) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// Sweep evicts stores idle for longer than the TTL and returns how many went.
func (s *Sweeper) Sweep() int {
	if s.idleTTL <= 0 {
		return 0
	}
	evicted := s.evictor.EvictIdle(s.now().Add(-s.idleTTL))
	if evicted > 0 {
		s.logger.Debug("idle stores evicted", zap.Int("count", evicted))
	}
	return evicted
}
