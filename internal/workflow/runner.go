package workflow

import (
	"context"
	"log/slog"
	"time"

	"foldersort/internal/classify"
	"foldersort/internal/config"
	"foldersort/internal/history"
	"foldersort/internal/logging"
	"foldersort/internal/notifications"
	"foldersort/internal/publish"
	"foldersort/internal/sorter"
	"foldersort/internal/staging"
	"foldersort/internal/tree"
)

// Recorder persists finished runs. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

// Runner executes directory and archive sorts with shared configuration.
// It is safe for concurrent use; concurrent runs on the same root are
// serialized by the root lock.
type Runner struct {
	cfg       *config.Config
	sorter    *sorter.Sorter
	recorder  Recorder
	publisher publish.Publisher
	notifier  notifications.Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// RunnerOption configures optional Runner behavior.
type RunnerOption func(*Runner)

// WithRecorder stores every run through rec.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithPublisher uploads packaged archives through p.
func WithPublisher(p publish.Publisher) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithNotifier announces finished runs through n.
func WithNotifier(n notifications.Notifier) RunnerOption {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

// NewRunner builds a Runner whose classifier follows cfg's rules.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...RunnerOption) (*Runner, error) {
	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, err
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	r := &Runner{
		cfg: cfg,
		sorter: sorter.New(classify.New(rules), logger,
			sorter.WithAlwaysCreateDefault(cfg.Sorting.AlwaysCreateDefault)),
		publisher: publish.Nop{},
		notifier:  notifications.New(cfg.Notifications),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Classifier exposes the classifier runs use.
func (r *Runner) Classifier() *classify.Classifier {
	return r.sorter.Classifier()
}

// Plan builds the tree for root without changing anything on disk.
func (r *Runner) Plan(ctx context.Context, root string) (*tree.Tree, error) {
	return r.sorter.Build(ctx, root)
}

// CleanStaleJobs removes job directories abandoned by earlier runs.
func (r *Runner) CleanStaleJobs(ctx context.Context) staging.CleanStaleResult {
	return staging.CleanStale(ctx, r.cfg.Paths.WorkDir, r.cfg.StaleJobAge(), r.logger)
}

func (r *Runner) record(ctx context.Context, result *Result) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(context.WithoutCancel(ctx), result.historyRun()); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run history not recorded", "history_record_failed",
			logging.String(logging.FieldRunID, result.RunID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions and free space"),
			logging.String(logging.FieldImpact, "run missing from history"),
		)
	}
}

func (r *Runner) notify(ctx context.Context, result *Result) {
	if err := r.notifier.NotifyRun(context.WithoutCancel(ctx), result.summary()); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "run notification not sent", "notification_failed",
			logging.String(logging.FieldRunID, result.RunID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
