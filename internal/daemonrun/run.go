// Package daemonrun wires the daemon's dependencies and runs it until the
// context is canceled. Both lecternd and "lectern daemon" share this path.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"

	"lectern/internal/config"
	"lectern/internal/daemon"
	"lectern/internal/logging"
	"lectern/internal/notify"
	"lectern/internal/preflight"
	"lectern/internal/reconcile"
	"lectern/internal/services/capture"
	"lectern/internal/services/coursesites"
	"lectern/internal/store"
	"lectern/internal/workflow"
)

// Run starts the full daemon stack and blocks until ctx is canceled.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if result.Passed {
			continue
		}
		logger.WarnContext(ctx, "preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
		)
	}
	if !preflight.AllPassed(results) {
		return fmt.Errorf("preflight checks failed; run \"lectern preflight\" for details")
	}

	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer st.Close()

	provider, err := capture.NewConfiguredService(cfg)
	if err != nil {
		return err
	}

	notifier := notify.NewService(cfg, st, nil, logger)
	runner, err := reconcile.NewRunner(cfg, st, provider, notifier, logger)
	if err != nil {
		return err
	}
	runner.Sites = coursesites.NewConfiguredDirectory(cfg)

	manager := workflow.NewManager(cfg, runner, logger)
	manager.SetOutbox(notifier)
	d, err := daemon.New(cfg, st, logger, manager)
	if err != nil {
		return err
	}

	if err := d.Start(ctx); err != nil {
		return err
	}
	defer d.Stop()

	<-ctx.Done()
	logger.Info("lectern daemon shutting down")
	return nil
}
