package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/logistock/logistock/internal/inventory"
	jobmetrics "github.com/logistock/logistock/internal/jobs"
	"github.com/logistock/logistock/internal/shared"
)

// Job describes a submitted report run.
type Job struct {
	ID          string `json:"id"`
	Kind        Kind   `json:"kind"`
	Destination string `json:"destination,omitempty"`
}

// DispatcherConfig groups optional collaborators.
type DispatcherConfig struct {
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Notifier  shared.Notifier
	ReportDir string
	// MaxConcurrent bounds simultaneous jobs; zero means unbounded.
	MaxConcurrent int
}

// Dispatcher runs report jobs on background goroutines. Each job works on a
// snapshot the caller took before submitting, so it never observes later
// ledger mutations.
type Dispatcher struct {
	group     errgroup.Group
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
	notifier  shared.Notifier
	reportDir string
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = shared.NotifierFunc(func(shared.Outcome) {})
	}
	d := &Dispatcher{logger: logger, metrics: cfg.Metrics, notifier: notifier, reportDir: cfg.ReportDir}
	if cfg.MaxConcurrent > 0 {
		d.group.SetLimit(cfg.MaxConcurrent)
	}
	return d
}

// Submit schedules a report over snapshot. Export jobs write to dest, or to a
// timestamped file in the report directory when dest is empty; the other kinds
// deliver their text through the notifier.
func (d *Dispatcher) Submit(ctx context.Context, kind Kind, snapshot *inventory.Ledger, dest string) (Job, error) {
	if snapshot == nil {
		return Job{}, fmt.Errorf("%w: snapshot required", shared.ErrInvalidArgument)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Job{}, err
	}
	job := Job{ID: uuid.NewString(), Kind: kind}
	if kind == KindExport {
		job.Destination = dest
		if job.Destination == "" {
			job.Destination = DefaultDestination(d.reportDir, nowFunc())
		}
	}
	logger := d.logger.With(slog.String("job_id", job.ID), slog.String("kind", string(kind)))
	logger.Info("report job queued")

	d.group.Go(func() error {
		tracker := d.metrics.Track("report_" + string(kind))
		outcome, err := d.run(ctx, job, snapshot)
		_ = tracker.End(err)
		if err != nil {
			logger.Error("report job failed", slog.Any("error", err))
		} else {
			d.metrics.AddProducts("report_"+string(kind), snapshot.Len())
			logger.Info("report job finished")
		}
		d.notifier.Notify(outcome)
		return err
	})
	return job, nil
}

// Wait blocks until every submitted job has finished and returns the first
// job error.
func (d *Dispatcher) Wait() error {
	return d.group.Wait()
}

func (d *Dispatcher) run(ctx context.Context, job Job, snapshot *inventory.Ledger) (shared.Outcome, error) {
	title := reportTitle(job.Kind)
	if err := ctx.Err(); err != nil {
		return shared.Failure(title, err), err
	}
	if job.Kind == KindExport {
		start := time.Now()
		if err := ExportFile(job.Destination, snapshot); err != nil {
			return shared.Failure(title, err), err
		}
		d.logger.Debug("export written", slog.String("path", job.Destination), slog.Duration("took", time.Since(start)))
		return shared.Success(title, fmt.Sprintf("Report exported to %s", job.Destination)), nil
	}
	text, err := Render(job.Kind, snapshot)
	if err != nil {
		return shared.Failure(title, err), err
	}
	return shared.Success(title, text), nil
}

func reportTitle(kind Kind) string {
	switch kind {
	case KindCurrent:
		return "Current Inventory Report"
	case KindHistory:
		return "Historical Inventory Report"
	default:
		return "Detailed Inventory Export"
	}
}
