package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/reconcile"
)

// PassRunner is the single operation the manager schedules.
type PassRunner interface {
	RunPass(ctx context.Context) (*reconcile.PassReport, error)
}

// OutboxDrainer flushes queued notification emails. The manager drains the
// outbox on its own interval so mail delayed by a transient mailer failure
// does not wait for the next reconciliation pass.
type OutboxDrainer interface {
	Flush(ctx context.Context) (int, error)
}

// Status is a point-in-time view of the manager for the API and CLI.
type Status struct {
	Running    bool
	LastPass   *reconcile.PassReport
	LastError  string
	NextPassAt time.Time
}

// Manager runs reconciliation passes on an interval. Passes never overlap:
// the loop is the only goroutine that calls the runner, and manual triggers
// just wake it early.
type Manager struct {
	cfg      *config.Config
	runner   PassRunner
	outbox   OutboxDrainer
	logger   *slog.Logger
	interval time.Duration

	trigger chan struct{}

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastPass *reconcile.PassReport
	lastErr  error
	nextAt   time.Time
}

// NewManager constructs a workflow manager around a pass runner.
func NewManager(cfg *config.Config, runner PassRunner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	interval := time.Duration(cfg.Reconcile.PassInterval) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Manager{
		cfg:      cfg,
		runner:   runner,
		logger:   logger,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// SetOutbox attaches an outbox drainer. Must be called before Start.
func (m *Manager) SetOutbox(outbox OutboxDrainer) {
	m.outbox = outbox
}

// Start begins the background pass loop, running the first pass immediately.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	if m.outbox != nil {
		m.wg.Add(1)
		go m.drainOutbox(runCtx)
	}
	return nil
}

// Stop terminates the loop and waits for any in-flight pass to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// TriggerNow wakes the loop for an immediate pass. A trigger that arrives
// while a pass is running coalesces into one follow-up pass.
func (m *Manager) TriggerNow() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Status reports the manager's current state.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := Status{
		Running:    m.running,
		LastPass:   m.lastPass,
		NextPassAt: m.nextAt,
	}
	if m.lastErr != nil {
		status.LastError = m.lastErr.Error()
	}
	return status
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runOnce(ctx)
	for {
		m.mu.Lock()
		m.nextAt = time.Now().Add(m.interval)
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-m.trigger:
		}
		m.runOnce(ctx)
	}
}

func (m *Manager) drainOutbox(ctx context.Context) {
	defer m.wg.Done()

	interval := time.Duration(m.cfg.Reconcile.OutboxInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		sent, err := m.outbox.Flush(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.WarnContext(ctx, "outbox drain failed", logging.Error(err))
			continue
		}
		if sent > 0 {
			m.logger.InfoContext(ctx, "notification outbox drained", logging.Int("sent", sent))
		}
	}
}

func (m *Manager) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	timeout := time.Duration(m.cfg.Reconcile.CallTimeout) * time.Second
	passCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		passCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := m.runner.RunPass(passCtx)

	m.mu.Lock()
	m.lastErr = err
	if report != nil {
		m.lastPass = report
	}
	m.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) {
		m.logger.ErrorContext(ctx, "reconciliation pass failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check feed path and provider connectivity"),
		)
	}
}
