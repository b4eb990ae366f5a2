package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/logistock/logistock/internal/report"
	"github.com/logistock/logistock/internal/shared"
	"github.com/logistock/logistock/jobs"
)

func runReport(s *session, args []string) error {
	if len(args) == 0 {
		return usagef("expected current, history or export")
	}
	kind, err := report.ParseKind(args[0])
	if err != nil {
		return usagef("%v", err)
	}
	if kind == report.KindExport {
		return runExport(s, args[1:])
	}
	if _, err := positional(s, "report "+args[0], args[1:]); err != nil {
		return err
	}
	text, err := s.rt.Cache.FetchText(s.ctx, kind, func(context.Context) (string, error) {
		return report.Render(kind, s.rt.Service.Snapshot())
	})
	if err != nil {
		return err
	}
	s.notifier.Print(text)
	return nil
}

func runExport(s *session, args []string) error {
	fs := s.flags("report export")
	out := fs.String("out", "", "destination file; defaults to a timestamped file in REPORT_DIR")
	async := fs.Bool("async", false, "queue the export on the worker instead of writing it here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := expect(fs); err != nil {
		return err
	}

	if *async {
		return enqueueExport(s, *out)
	}
	dispatcher := report.NewDispatcher(report.DispatcherConfig{
		Logger:    s.opts.Logger,
		Metrics:   s.rt.JobMetrics,
		Notifier:  s.notifier,
		ReportDir: s.rt.Config.ReportDir,
	})
	if _, err := dispatcher.Submit(s.ctx, report.KindExport, s.rt.Service.Snapshot(), *out); err != nil {
		return err
	}
	if err := dispatcher.Wait(); err != nil {
		return errReported
	}
	return nil
}

func enqueueExport(s *session, out string) error {
	if !s.rt.RedisEnabled() {
		return fmt.Errorf("%w: -async requires REDIS_ADDR", shared.ErrInvalidArgument)
	}
	source, err := filepath.Abs(s.rt.Files.Path())
	if err != nil {
		return err
	}
	if out != "" {
		if out, err = filepath.Abs(out); err != nil {
			return err
		}
	}
	q, err := NewJobsCLI(s.rt.Config.RedisAddr)
	if err != nil {
		return err
	}
	defer func() { _ = q.Close() }()
	info, err := q.EnqueueExport(s.ctx, jobs.ReportExportPayload{
		Source:      source,
		Destination: out,
		Encoding:    s.rt.Config.CSVEncoding,
	})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Detailed Export", fmt.Sprintf("Export queued as task %s.", info.ID)))
	return nil
}
