// Package report renders read-only views of an inventory ledger.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/shared"
)

const (
	// CurrentHeader opens the current snapshot report.
	CurrentHeader = "=== Current Inventory ==="
	// HistoryHeader opens the historical summary report.
	HistoryHeader = "Historical Inventory Report:"
)

// Kind names a report.
type Kind string

const (
	KindCurrent Kind = "current"
	KindHistory Kind = "history"
	KindExport  Kind = "export"
)

// ParseKind validates a report name.
func ParseKind(value string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(value))); k {
	case KindCurrent, KindHistory, KindExport:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown report %q", shared.ErrInvalidArgument, value)
	}
}

var nowFunc = time.Now

// CurrentSnapshot renders every product line under the current inventory
// header, or the empty marker.
func CurrentSnapshot(l *inventory.Ledger) string {
	var b strings.Builder
	b.WriteString(CurrentHeader)
	b.WriteByte('\n')
	for _, line := range l.List() {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// HistoricalSummary renders the name, entry date and exit date of every product.
func HistoricalSummary(l *inventory.Ledger) string {
	var b strings.Builder
	b.WriteString(HistoryHeader)
	b.WriteByte('\n')
	for _, p := range l.Products() {
		exit := "N/A"
		if d := p.ExitDate(); d != nil {
			exit = inventory.FormatDate(*d)
		}
		fmt.Fprintf(&b, "Product: %s, Entry Date: %s, Exit Date: %s\n",
			p.Name(), inventory.FormatDate(p.EntryDate()), exit)
	}
	return b.String()
}

// Render produces the text of a snapshot or historical report.
func Render(kind Kind, l *inventory.Ledger) (string, error) {
	switch kind {
	case KindCurrent:
		return CurrentSnapshot(l), nil
	case KindHistory:
		return HistoricalSummary(l), nil
	case KindExport:
		var b strings.Builder
		if err := DetailedExport(&b, l); err != nil {
			return "", err
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: unknown report %q", shared.ErrInvalidArgument, kind)
	}
}

// DetailedExport writes totals followed by every product with its quantity
// history. The ledger is only read.
func DetailedExport(w io.Writer, l *inventory.Ledger) error {
	bw := bufio.NewWriter(w)
	products := l.Products()

	units := 0
	value := decimal.Zero
	for _, p := range products {
		units += p.Quantity()
		value = value.Add(p.Price().Mul(decimal.NewFromInt(int64(p.Quantity()))))
	}

	fmt.Fprintln(bw, "LogiStock Detailed Inventory Report")
	fmt.Fprintf(bw, "Generated: %s\n", nowFunc().UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "Products: %d\n", len(products))
	fmt.Fprintf(bw, "Total units: %d\n", units)
	fmt.Fprintf(bw, "Stock value: $%s\n", value.StringFixed(2))

	for _, p := range products {
		exit := "N/A"
		if d := p.ExitDate(); d != nil {
			exit = inventory.FormatDate(*d)
		}
		fmt.Fprintln(bw)
		fmt.Fprintf(bw, "[%d] %s\n", p.ID(), p.Name())
		fmt.Fprintf(bw, "  Category: %s\n", p.Category())
		fmt.Fprintf(bw, "  Price: $%s (base $%s)\n", p.Price().StringFixed(2), p.BasePrice().StringFixed(2))
		fmt.Fprintf(bw, "  Quantity: %d\n", p.Quantity())
		fmt.Fprintf(bw, "  Entry Date: %s\n", inventory.FormatDate(p.EntryDate()))
		fmt.Fprintf(bw, "  Exit Date: %s\n", exit)
		fmt.Fprintln(bw, "  History:")
		for _, h := range p.History() {
			fmt.Fprintf(bw, "    %s  %-10s %d\n", h.At.UTC().Format(time.RFC3339), h.Reason, h.Quantity)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("report: write export: %w: %w", shared.ErrIOFailure, err)
	}
	return nil
}

// ExportFile writes the detailed export to path, creating parent directories.
func ExportFile(path string, l *inventory.Ledger) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: export destination required", shared.ErrInvalidArgument)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w: %w", filepath.Dir(path), shared.ErrIOFailure, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w: %w", path, shared.ErrIOFailure, err)
	}
	if err := DetailedExport(f, l); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w: %w", path, shared.ErrIOFailure, err)
	}
	return nil
}

// DefaultDestination names an export file inside dir stamped with at.
func DefaultDestination(dir string, at time.Time) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, fmt.Sprintf("inventory-report-%s.txt", at.UTC().Format("20060102-150405")))
}
