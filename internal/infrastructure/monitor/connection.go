package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Remote is the part of the remote backend the monitor probes.
type Remote interface {
	Configured() bool
	Ping(ctx context.Context) error
}

// Mirror is the part of the local mirror the monitor probes.
type Mirror interface {
	Size() (int, error)
}

// detailer is implemented by mirrors that expose driver counters.
type detailer interface {
	Details() map[string]any
}

// Monitor periodically records backend reachability for health reporting.
// Stores do not consult it; they probe the remote on every call.
type Monitor struct {
	remote Remote
	mirror Mirror

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(remote Remote, mirror Mirror, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		remote:   remote,
		mirror:   mirror,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = m.cron.AddFunc(schedule, m.Refresh)
	return m
}

// Start runs one check and launches the scheduler.
func (m *Monitor) Start() {
	m.Refresh()
	m.cron.Start()
	m.logger.Info("connection monitor started", zap.Duration("interval", m.interval))
}

// Stop waits for a running check or ctx, whichever ends first.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh probes both backends now.
func (m *Monitor) Refresh() {
	mirrorOK, mirrorSize := m.checkMirror()
	configured := m.remote != nil && m.remote.Configured()
	status := Status{
		RemoteConfigured: configured,
		Remote:           configured && m.checkRemote(),
		Mirror:           mirrorOK,
		MirrorSize:       mirrorSize,
		LastCheck:        time.Now(),
	}
	if d, ok := m.mirror.(detailer); ok && mirrorOK {
		status.MirrorDetails = d.Details()
	}

	m.mu.Lock()
	changed := m.status.Remote != status.Remote && !m.status.LastCheck.IsZero()
	m.status = status
	m.mu.Unlock()

	if changed {
		m.logger.Info("remote backend reachability changed", zap.Bool("online", status.Remote))
	}
}

func (m *Monitor) checkRemote() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.remote.Ping(ctx); err != nil {
		m.logger.Debug("remote ping failed", zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkMirror() (bool, int) {
	if m.mirror == nil {
		return false, 0
	}
	size, err := m.mirror.Size()
	if err != nil {
		m.logger.Warn("mirror size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
