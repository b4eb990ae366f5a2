package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/logistock/logistock/internal/inventory"
	jobmetrics "github.com/logistock/logistock/internal/jobs"
)

const sampleCSV = "id,name,price,base_price,quantity,category,entry_date,exit_date\n" +
	"1,Widget,7.5,10,4,Tools,2024-01-01,\n" +
	"2,Gadget,3,3,0,Misc,2024-01-05,2024-02-01\n"

func exportTask(t *testing.T, payload ReportExportPayload) *asynq.Task {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TaskReportExport, body)
}

func TestNewReportExportTask(t *testing.T) {
	task, err := NewReportExportTask(ReportExportPayload{Source: "inventory.csv", Destination: "out.txt"})
	require.NoError(t, err)
	require.Equal(t, TaskReportExport, task.Type())

	var payload ReportExportPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "inventory.csv", payload.Source)
	require.False(t, payload.RequestedAt.IsZero())

	_, err = NewReportExportTask(ReportExportPayload{})
	require.Error(t, err)
}

func TestScheduledReportExport(t *testing.T) {
	reg, err := ScheduledReportExport("0 2 * * *", "inventory.csv", "windows-1252")
	require.NoError(t, err)
	require.Equal(t, "0 2 * * *", reg.Spec)

	var payload ReportExportPayload
	require.NoError(t, json.Unmarshal(reg.Task.Payload(), &payload))
	require.True(t, payload.RequestedAt.IsZero())
	require.Equal(t, "windows-1252", payload.Encoding)
}

func TestReportExportHandlerWritesReport(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "inventory.csv")
	require.NoError(t, os.WriteFile(source, []byte(sampleCSV), 0o600))

	h := NewReportExportHandler(nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), filepath.Join(dir, "reports"))
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	err := h.ProcessTask(context.Background(), exportTask(t, ReportExportPayload{Source: source, RequestedAt: at}))
	require.NoError(t, err)

	out := filepath.Join(dir, "reports", "inventory-report-20240301-093000.txt")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "[2] Gadget")
	require.Contains(t, string(data), "Stock value: $30.00")
}

func TestReportExportHandlerSkipsRetryOnBadInput(t *testing.T) {
	dir := t.TempDir()
	h := NewReportExportHandler(nil, nil, dir)
	ctx := context.Background()

	err := h.ProcessTask(ctx, asynq.NewTask(TaskReportExport, []byte("{")))
	require.True(t, errors.Is(err, asynq.SkipRetry))

	err = h.ProcessTask(ctx, exportTask(t, ReportExportPayload{Source: filepath.Join(dir, "missing.csv")}))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.ErrorIs(t, err, inventory.ErrNoInventoryFile)

	err = h.ProcessTask(ctx, exportTask(t, ReportExportPayload{Source: "x.csv", Encoding: "ebcdic"}))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestReportExportHandlerTaskHandler(t *testing.T) {
	h := NewReportExportHandler(nil, nil, "")
	th := h.TaskHandler()
	require.Equal(t, TaskReportExport, th.Type)
	require.NotNil(t, th.Handler)
}
