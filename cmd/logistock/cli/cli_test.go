package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logistock/logistock/internal/app"
	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/report"
	"github.com/logistock/logistock/internal/shared"
	_ "github.com/logistock/logistock/testing"
)

type harness struct {
	t   *testing.T
	dir string
	cfg *app.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	return &harness{t: t, dir: dir, cfg: &app.Config{
		InventoryFile:  filepath.Join(dir, "inventory.csv"),
		ReportDir:      filepath.Join(dir, "reports"),
		ReportCacheTTL: time.Minute,
	}}
}

func (h *harness) run(args ...string) (int, string, string) {
	h.t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	code := Run(context.Background(), args, Options{
		Config:  h.cfg,
		Stdout:  stdout,
		Stderr:  stderr,
		NoColor: true,
	})
	return code, stdout.String(), stderr.String()
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	code, stdout, stderr := h.run(args...)
	require.Zero(h.t, code, "stderr: %s", stderr)
	return stdout
}

func (h *harness) addWidget() {
	h.t.Helper()
	h.mustRun("add", "-id", "1", "-name", "Widget", "-price", "10", "-quantity", "5",
		"-category", "Tools", "-entry-date", "2024-01-01")
}

func TestRunUsage(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run()
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "usage: logistock")

	code, _, stderr = h.run("teleport")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, `unknown command "teleport"`)

	code, _, stderr = h.run("remove")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "expected arguments")
}

func TestListWarnsOnMissingFile(t *testing.T) {
	h := newHarness(t)
	code, stdout, stderr := h.run("list")
	require.Zero(t, code)
	require.Contains(t, stdout, inventory.EmptyMarker)
	require.Contains(t, stderr, "warning: Load:")
	require.Contains(t, stderr, "does not exist")
}

func TestAddPersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	_, err := os.Stat(h.cfg.InventoryFile)
	require.NoError(t, err)

	out := h.mustRun("list")
	require.Contains(t, out, "ID: 1, Name: Widget, Price: $10.00, Quantity: 5, Category: Tools, Entry Date: 2024-01-01, Exit Date: N/A")

	out = h.mustRun("find", "1")
	require.Contains(t, out, "Name: Widget")
	require.Contains(t, out, "created")
}

func TestAddRejectsDuplicateID(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	code, _, stderr := h.run("add", "-id", "1", "-name", "Other", "-price", "3")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "error: Add:")
}

func TestAddRequiresPrice(t *testing.T) {
	h := newHarness(t)
	code, _, stderr := h.run("add", "-id", "1", "-name", "Widget")
	require.Equal(t, exitUsage, code)
	require.Contains(t, stderr, "-price is required")
}

func TestStockMovements(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	out := h.mustRun("entry", "1", "3")
	require.Contains(t, out, "now 8")

	out = h.mustRun("exit", "1", "8")
	require.Contains(t, out, "now 0")

	code, _, stderr := h.run("exit", "1", "1")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "error: Exit:")

	out = h.mustRun("set-quantity", "1", "12")
	require.Contains(t, out, "12 units")

	out = h.mustRun("find", "1")
	require.Contains(t, out, "correction")
	require.Contains(t, out, "Quantity: 12")
}

func TestPricing(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	require.Contains(t, h.mustRun("discount", "1", "10"), "$9.00")
	require.Contains(t, h.mustRun("discount", "1", "10"), "$9.00")
	require.Contains(t, h.mustRun("discount", "-incremental", "1", "10"), "$8.10")
	require.Contains(t, h.mustRun("reset-price", "1"), "$10.00")
	require.Contains(t, h.mustRun("price", "1", "7.5"), "$7.50")
	require.Contains(t, h.mustRun("base-price", "1", "20"), "$20.00")

	code, _, _ := h.run("discount", "1", "100")
	require.Equal(t, exitError, code)

	code, _, _ = h.run("price", "1", "abc")
	require.Equal(t, exitError, code)
}

func TestRemoveUnknownProduct(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	code, _, stderr := h.run("remove", "42")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "ID 42")

	require.Contains(t, h.mustRun("remove", "1"), "removed")
	require.Contains(t, h.mustRun("list"), inventory.EmptyMarker)
}

func TestReports(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	require.Contains(t, h.mustRun("report", "current"), report.CurrentHeader)
	require.Contains(t, h.mustRun("report", "history"), report.HistoryHeader)

	code, _, _ := h.run("report", "weekly")
	require.Equal(t, exitUsage, code)
}

func TestReportExport(t *testing.T) {
	h := newHarness(t)
	h.addWidget()

	dest := filepath.Join(h.dir, "out", "export.txt")
	out := h.mustRun("report", "export", "-out", dest)
	require.Contains(t, out, "Report exported to "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Contains(t, string(data), "Widget")
}

func TestFeaturesNeedingServices(t *testing.T) {
	h := newHarness(t)

	code, _, stderr := h.run("report", "export", "-async")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "REDIS_ADDR")

	code, _, stderr = h.run("sync", "pg-push")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "PG_DSN")

	code, _, _ = h.run("sync", "pg-sideways")
	require.Equal(t, exitUsage, code)

	code, _, stderr = h.run("jobs", "stats")
	require.Equal(t, exitError, code)
	require.Contains(t, stderr, "REDIS_ADDR")
}

func TestServeSkipsInTestMode(t *testing.T) {
	h := newHarness(t)
	code, _, _ := h.run("serve")
	require.Zero(t, code)
}

func TestGlobalFileFlag(t *testing.T) {
	h := newHarness(t)
	other := filepath.Join(h.dir, "other.csv")
	h.mustRun("-file", other, "add", "-id", "9", "-name", "Bolt", "-price", "1")

	_, err := os.Stat(other)
	require.NoError(t, err)
	_, err = os.Stat(h.cfg.InventoryFile)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestColorNotifier(t *testing.T) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	n := NewColorNotifier(stdout, stderr, true)

	n.Notify(shared.Success("Save", "done"))
	n.Notify(shared.Warning("Load", "missing"))
	n.Notify(shared.Failure("Exit", errors.New("boom")))

	require.Equal(t, "Save: done\n", stdout.String())
	require.Equal(t, "warning: Load: missing\nerror: Exit: boom\n", stderr.String())
}
