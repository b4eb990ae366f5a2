package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/logistock/logistock/internal/shared"
	"github.com/logistock/logistock/jobs"
)

// JobsCLI wraps manual management helpers for the export queue.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if strings.TrimSpace(redisAddr) == "" {
		return nil, errors.New("jobs cli: redis address required")
	}
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// EnqueueExport queues a detailed export of payload.Source.
func (c *JobsCLI) EnqueueExport(ctx context.Context, payload jobs.ReportExportPayload) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueReportExport(ctx, payload)
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Archived  int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Archived = info.Archived
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

func runJobs(s *session, args []string) error {
	if len(args) == 0 {
		return usagef("expected stats or scheduled")
	}
	if !s.rt.RedisEnabled() {
		return fmt.Errorf("%w: jobs requires REDIS_ADDR", shared.ErrInvalidArgument)
	}
	switch args[0] {
	case "stats":
		if _, err := positional(s, "jobs stats", args[1:]); err != nil {
			return err
		}
		c, err := NewJobsCLI(s.rt.Config.RedisAddr)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		stats, err := c.InspectQueue(s.ctx)
		if err != nil {
			return err
		}
		s.notifier.Print(fmt.Sprintf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived))
		return nil
	case "scheduled":
		fs := s.flags("jobs scheduled")
		size := fs.Int("size", 10, "page size")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if _, err := expect(fs); err != nil {
			return err
		}
		c, err := NewJobsCLI(s.rt.Config.RedisAddr)
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()
		tasks, err := c.ListScheduled(s.ctx, *size)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			s.notifier.Print(fmt.Sprintf("%s %s next=%s", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04:05")))
		}
		return nil
	default:
		return usagef("unknown jobs subcommand %q", args[0])
	}
}
