package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/shared"
)

func sampleLedger(t *testing.T) *inventory.Ledger {
	t.Helper()
	l := inventory.NewLedger()
	exit := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	for _, params := range []inventory.ProductParams{
		{ID: 1, Name: "Widget", Price: decimal.RequireFromString("7.5"), BasePrice: decimal.RequireFromString("10"), Quantity: 4, Category: "Tools", EntryDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Name: "Gadget", Price: decimal.RequireFromString("3"), Quantity: 0, Category: "Misc", EntryDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ExitDate: &exit},
	} {
		p, err := inventory.NewProduct(params)
		require.NoError(t, err)
		require.NoError(t, l.Add(p))
	}
	return l
}

func TestCurrentSnapshot(t *testing.T) {
	out := CurrentSnapshot(sampleLedger(t))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Equal(t, CurrentHeader, lines[0])
	require.Len(t, lines, 3)
	require.Equal(t, "ID: 1, Name: Widget, Price: $7.50, Quantity: 4, Category: Tools, Entry Date: 2024-01-01, Exit Date: N/A", lines[1])

	empty := CurrentSnapshot(inventory.NewLedger())
	require.Equal(t, CurrentHeader+"\n"+inventory.EmptyMarker+"\n", empty)
}

func TestHistoricalSummary(t *testing.T) {
	out := HistoricalSummary(sampleLedger(t))
	require.Equal(t, HistoryHeader+"\n"+
		"Product: Widget, Entry Date: 2024-01-01, Exit Date: N/A\n"+
		"Product: Gadget, Entry Date: 2024-01-05, Exit Date: 2024-02-01\n", out)

	require.Equal(t, HistoryHeader+"\n", HistoricalSummary(inventory.NewLedger()))
}

func TestDetailedExport(t *testing.T) {
	prev := nowFunc
	nowFunc = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = prev })

	var b strings.Builder
	require.NoError(t, DetailedExport(&b, sampleLedger(t)))
	out := b.String()

	require.Contains(t, out, "Generated: 2024-03-01T09:30:00Z")
	require.Contains(t, out, "Products: 2")
	require.Contains(t, out, "Total units: 4")
	require.Contains(t, out, "Stock value: $30.00")
	require.Contains(t, out, "[1] Widget")
	require.Contains(t, out, "Price: $7.50 (base $10.00)")
	require.Contains(t, out, "Exit Date: 2024-02-01")
	require.Contains(t, out, "created")
}

func TestExportFile(t *testing.T) {
	l := sampleLedger(t)
	before := CurrentSnapshot(l)

	path := filepath.Join(t.TempDir(), "nested", "report.txt")
	require.NoError(t, ExportFile(path, l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "LogiStock Detailed Inventory Report")
	require.Equal(t, before, CurrentSnapshot(l))

	require.ErrorIs(t, ExportFile("", l), shared.ErrInvalidArgument)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" History ")
	require.NoError(t, err)
	require.Equal(t, KindHistory, k)

	_, err = ParseKind("weekly")
	require.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestDefaultDestination(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC)
	require.Equal(t, filepath.Join("reports", "inventory-report-20240301-093005.txt"), DefaultDestination("reports", at))
}
