package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"lectern/internal/config"
	"lectern/internal/desired"
	"lectern/internal/logging"
	"lectern/internal/notify"
	"lectern/internal/services/capture"
	"lectern/internal/services/coursesites"
	"lectern/internal/sis"
	"lectern/internal/store"
)

// PassReport summarizes one reconciliation pass.
type PassReport struct {
	PassID    string
	TermID    string
	StartedAt time.Time
	Duration  time.Duration
	Stats     Stats
	MailSent  int
	Errors    []string
}

// Runner drives full passes: read the feed, build desired state, diff
// against observed state, apply, then drain the notification outbox.
type Runner struct {
	cfg      *config.Config
	store    *store.Store
	provider capture.Provider
	notify   *notify.Service
	logger   *slog.Logger

	// Today is injectable so tests can pin the pass date.
	Today func() sis.Date

	// Sites, when set, resolves course-site publish targets for sections
	// that chose course_site publishing without naming explicit sites.
	Sites coursesites.Directory
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, st *store.Store, provider capture.Provider, svc *notify.Service, logger *slog.Logger) (*Runner, error) {
	if cfg == nil || st == nil || provider == nil {
		return nil, fmt.Errorf("config, store, and provider are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		store:    st,
		provider: provider,
		notify:   svc,
		logger:   logger,
		Today:    func() sis.Date { return sis.DateOf(time.Now()) },
	}, nil
}

// RunPass executes one full reconciliation pass. The returned report is
// non-nil whenever the pass ran far enough to plan; individual action
// failures land in report.Errors rather than the error return.
func (r *Runner) RunPass(ctx context.Context) (*PassReport, error) {
	passID := uuid.NewString()
	started := time.Now()
	logger := r.logger.With(logging.String(logging.FieldPassID, passID))
	logger.InfoContext(ctx, "reconciliation pass started")

	snapshot, err := sis.LoadSnapshot(r.cfg.Paths.FeedPath)
	if err != nil {
		return nil, fmt.Errorf("load feed snapshot: %w", err)
	}
	if snapshot.Term.ID != r.cfg.Term.CurrentID {
		return nil, fmt.Errorf("feed term %s does not match configured term %s",
			snapshot.Term.ID, r.cfg.Term.CurrentID)
	}

	policy, err := desired.PolicyByName(r.cfg.Approvals.Policy)
	if err != nil {
		return nil, err
	}
	builder := desired.Builder{
		Policy:      policy,
		OffsetStart: r.cfg.Capture.RecordingOffsetMin,
		OffsetEnd:   r.cfg.Capture.RecordingOffsetEnd,
	}
	states := builder.Build(snapshot, r.Today())
	r.resolvePublishTargets(ctx, snapshot.Term.ID, states, logger)

	observed, err := r.store.ListActiveSeries(ctx, snapshot.Term.ID)
	if err != nil {
		return nil, fmt.Errorf("load observed series: %w", err)
	}

	plan := BuildPlan(states, observed)
	executor := &Executor{Store: r.store, Provider: r.provider, Notify: r.notify, Logger: logger}
	stats, failures := executor.Execute(ctx, snapshot, plan)

	sent := 0
	if r.notify != nil {
		sent, err = r.notify.Flush(ctx)
		if err != nil {
			failures = append(failures, fmt.Errorf("flush notifications: %w", err))
		}
	}

	report := &PassReport{
		PassID:    passID,
		TermID:    snapshot.Term.ID,
		StartedAt: started,
		Duration:  time.Since(started),
		Stats:     stats,
		MailSent:  sent,
	}
	for _, failure := range failures {
		report.Errors = append(report.Errors, failure.Error())
	}

	logger.InfoContext(ctx, "reconciliation pass finished",
		logging.String(logging.FieldTermID, report.TermID),
		logging.Int("created", stats.Created),
		logging.Int("replaced", stats.Replaced),
		logging.Int("updated", stats.Updated),
		logging.Int("canceled", stats.Canceled),
		logging.Int("skipped", stats.Skipped),
		logging.Int("frozen", stats.Frozen),
		logging.Int("failed", stats.Failed),
		logging.Int("mail_sent", sent),
		logging.Duration("elapsed", report.Duration),
	)
	return report, nil
}

// resolvePublishTargets fills empty course_site target lists from the site
// directory. A failed lookup leaves the state untouched; the pattern then
// publishes with no targets until the directory answers.
func (r *Runner) resolvePublishTargets(ctx context.Context, termID string, states []desired.PatternState, logger *slog.Logger) {
	if r.Sites == nil {
		return
	}
	for i := range states {
		state := &states[i]
		if state.PublishType != desired.PublishCourseSite || len(state.PublishTargetIDs) > 0 {
			continue
		}
		sites, err := r.Sites.SitesForSection(ctx, termID, state.SectionID)
		if err != nil {
			logger.WarnContext(ctx, "course site lookup failed",
				logging.String(logging.FieldSectionID, state.SectionID),
				logging.Error(err),
			)
			continue
		}
		for _, site := range sites {
			state.PublishTargetIDs = append(state.PublishTargetIDs, site.ID)
		}
		sort.Strings(state.PublishTargetIDs)
	}
}
