package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"lectern/internal/config"
	"lectern/internal/daemon"
	"lectern/internal/logging"
	"lectern/internal/reconcile"
	"lectern/internal/store"
	"lectern/internal/testsupport"
	"lectern/internal/workflow"
)

type stubRunner struct {
	passes atomic.Int64
}

func (r *stubRunner) RunPass(ctx context.Context) (*reconcile.PassReport, error) {
	r.passes.Add(1)
	return &reconcile.PassReport{
		PassID:    "cli-test-pass",
		TermID:    "2262",
		StartedAt: time.Now(),
	}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	runner     *stubRunner
	apiAddress string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	runner := &stubRunner{}
	manager := workflow.NewManager(cfg, runner, logging.NewNop())
	d, err := daemon.New(cfg, st, logging.NewNop(), manager)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(d.Stop)

	waitFor(t, 2*time.Second, func() bool { return runner.passes.Load() >= 1 })

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		runner:     runner,
		apiAddress: d.Status().APIAddress,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, api, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{}
	if api != "" {
		flags = append(flags, "--api", api)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
state_dir = %q
log_dir = %q
feed_path = %q
api_bind = %q

[term]
current_id = %q

[capture]
base_url = %q
token = %q

[notifications]
enabled = false
`,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.FeedPath,
		cfg.Paths.APIBind,
		cfg.Term.CurrentID,
		cfg.Capture.BaseURL,
		cfg.Capture.Token,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
