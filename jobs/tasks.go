package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/logistock/logistock/internal/inventory"
	jobmetrics "github.com/logistock/logistock/internal/jobs"
	"github.com/logistock/logistock/internal/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportExport renders a detailed export of a persisted inventory file.
	TaskReportExport = "report:export"

	exportMaxRetry = 3
	exportTimeout  = 2 * time.Minute
)

// ReportExportPayload describes an export request.
type ReportExportPayload struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination,omitempty"`
	Encoding    string    `json:"encoding,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReportExportTask constructs an Asynq task with a unique id.
func NewReportExportTask(payload ReportExportPayload) (*asynq.Task, error) {
	if payload.RequestedAt.IsZero() {
		payload.RequestedAt = time.Now().UTC()
	}
	return newReportExportTask(payload, asynq.TaskID(uuid.NewString()))
}

// ScheduledReportExport registers a recurring export of source. Each run is
// stamped with its own execution time.
func ScheduledReportExport(spec, source, encoding string) (CronRegistration, error) {
	task, err := newReportExportTask(ReportExportPayload{Source: source, Encoding: encoding})
	if err != nil {
		return CronRegistration{}, err
	}
	return CronRegistration{Spec: spec, Task: task}, nil
}

func newReportExportTask(payload ReportExportPayload, opts ...asynq.Option) (*asynq.Task, error) {
	if payload.Source == "" {
		return nil, errors.New("jobs: export source required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	opts = append([]asynq.Option{
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(exportMaxRetry),
		asynq.Timeout(exportTimeout),
	}, opts...)
	return asynq.NewTask(TaskReportExport, body, opts...), nil
}

// ReportExportHandler processes TaskReportExport tasks.
type ReportExportHandler struct {
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
	reportDir string
}

// NewReportExportHandler constructs the handler. Exports without a destination
// are written to reportDir.
func NewReportExportHandler(logger *slog.Logger, metrics *jobmetrics.Metrics, reportDir string) *ReportExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportExportHandler{logger: logger, metrics: metrics, reportDir: reportDir}
}

// TaskHandler registers the handler with a worker.
func (h *ReportExportHandler) TaskHandler() TaskHandler {
	return TaskHandler{Type: TaskReportExport, Handler: h.ProcessTask}
}

// ProcessTask loads the source file and writes the detailed export. Malformed
// payloads, unknown encodings and missing or unreadable sources are not retried.
func (h *ReportExportHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("jobs: decode export payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.RequestedAt.IsZero() {
		payload.RequestedAt = time.Now().UTC()
	}
	tracker := h.metrics.Track("report_export_task")
	n, err := h.export(ctx, payload)
	if err := tracker.End(err); err != nil {
		h.logger.Error("report export task failed", slog.String("source", payload.Source), slog.Any("error", err))
		return err
	}
	h.metrics.AddProducts("report_export_task", n)
	return nil
}

func (h *ReportExportHandler) export(ctx context.Context, payload ReportExportPayload) (int, error) {
	enc, err := inventory.LookupEncoding(payload.Encoding)
	if err != nil {
		return 0, fmt.Errorf("jobs: %w: %w", err, asynq.SkipRetry)
	}
	ledger := inventory.NewLedger()
	res, err := inventory.NewFileStore(payload.Source, enc).Load(ctx, ledger)
	if err != nil {
		return 0, fmt.Errorf("jobs: load %s: %w: %w", payload.Source, err, asynq.SkipRetry)
	}
	if res.Missing {
		return 0, fmt.Errorf("jobs: %s: %w: %w", payload.Source, inventory.ErrNoInventoryFile, asynq.SkipRetry)
	}
	for _, w := range res.Warnings {
		h.logger.Warn("report export source", slog.String("warning", w))
	}

	dest := payload.Destination
	if dest == "" {
		dest = report.DefaultDestination(h.reportDir, payload.RequestedAt)
	}
	if err := report.ExportFile(dest, ledger); err != nil {
		return 0, err
	}
	h.logger.Info("report exported", slog.String("path", dest), slog.Int("products", ledger.Len()))
	return ledger.Len(), nil
}
