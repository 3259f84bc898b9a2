package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceFunc is a periodic housekeeping task
type MaintenanceFunc func(ctx context.Context) error

// Maintenance runs housekeeping tasks such as cache sweeps and job
// retention cleanup on cron schedules.
type Maintenance struct {
	cron    *cron.Cron
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]maintenanceEntry
	running bool
}

type maintenanceEntry struct {
	id cron.EntryID
	fn MaintenanceFunc
}

// NewMaintenance creates a stopped maintenance scheduler. Each run is
// bounded by timeout when it is positive.
func NewMaintenance(logger *zap.Logger, timeout time.Duration) *Maintenance {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := cronLogger{logger: logger}
	return &Maintenance{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:  logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]maintenanceEntry),
	}
}

// Add registers fn under name using a standard five-field cron spec or a
// descriptor such as "@every 10m". An empty spec leaves the task disabled.
func (m *Maintenance) Add(name, spec string, fn MaintenanceFunc) error {
	if name == "" {
		return fmt.Errorf("%w: maintenance task name is empty", ErrInvalidConfig)
	}
	if fn == nil {
		return fmt.Errorf("%w: maintenance task %s has no function", ErrInvalidConfig, name)
	}
	if spec == "" {
		m.logger.Info("Maintenance task disabled", zap.String("task", name))
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[name]; exists {
		return fmt.Errorf("%w: maintenance task %s already registered", ErrInvalidConfig, name)
	}

	id, err := m.cron.AddFunc(spec, func() { m.runTask(name, fn) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q for %s: %v", ErrInvalidConfig, spec, name, err)
	}
	m.entries[name] = maintenanceEntry{id: id, fn: fn}
	return nil
}

// RunNow executes a registered task synchronously, outside its schedule
func (m *Maintenance) RunNow(ctx context.Context, name string) error {
	m.mu.Lock()
	e, ok := m.entries[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("maintenance task %s not registered", name)
	}
	return e.fn(ctx)
}

// Next returns the next activation time of a task
func (m *Maintenance) Next(name string) (time.Time, bool) {
	m.mu.Lock()
	e, ok := m.entries[name]
	m.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return m.cron.Entry(e.id).Next, true
}

// Start begins running scheduled tasks
func (m *Maintenance) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	m.cron.Start()
	m.logger.Info("Maintenance scheduler started", zap.Int("tasks", len(m.entries)))
}

// Stop cancels in-flight tasks and waits for them until ctx is done
func (m *Maintenance) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	m.cancel()
	stopped := m.cron.Stop()

	select {
	case <-stopped.Done():
		m.logger.Info("Maintenance scheduler stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

func (m *Maintenance) runTask(name string, fn MaintenanceFunc) {
	ctx := m.ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	switch {
	case err == nil:
		m.logger.Debug("Maintenance task finished",
			zap.String("task", name),
			zap.Duration("elapsed", time.Since(start)),
		)
	case errors.Is(err, context.Canceled):
		m.logger.Info("Maintenance task cancelled", zap.String("task", name))
	default:
		m.logger.Error("Maintenance task failed", zap.String("task", name), zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, toFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(toFields(keysAndValues), zap.Error(err))...)
}

func toFields(keysAndValues []interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
