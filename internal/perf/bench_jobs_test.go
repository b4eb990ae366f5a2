package perf

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/logistock/logistock/internal/jobs"
	"github.com/logistock/logistock/internal/report"
)

func TestReportJobThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	dir := t.TempDir()
	d := report.NewDispatcher(report.DispatcherConfig{
		Metrics:       jobmetrics.NewMetrics(reg),
		ReportDir:     dir,
		MaxConcurrent: 4,
	})
	l := seededLedger(t, 500)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, err := d.Submit(ctx, report.KindCurrent, l.Snapshot(), "")
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := d.Submit(ctx, report.KindExport, l.Snapshot(), filepath.Join(dir, fmt.Sprintf("export-%d.txt", i)))
		require.NoError(t, err)
	}
	require.NoError(t, d.Wait())

	families, err := reg.Gather()
	require.NoError(t, err)
	runs := map[string]float64{}
	var products float64
	for _, f := range families {
		switch f.GetName() {
		case "logistock_report_jobs_total":
			for _, m := range f.GetMetric() {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == "job" {
						runs[lp.GetValue()] += m.GetCounter().GetValue()
					}
				}
			}
		case "logistock_report_products_total":
			for _, m := range f.GetMetric() {
				products += m.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, 20.0, runs["report_current"])
	require.Equal(t, 5.0, runs["report_export"])
	require.Equal(t, 25.0*500, products)
}
