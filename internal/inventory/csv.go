package inventory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/shared"
)

// Columns is the fixed header of the inventory file.
var Columns = []string{"id", "name", "price", "base_price", "quantity", "category", "entry_date", "exit_date"}

// WriteCSV serialises products to w, header first.
func WriteCSV(w io.Writer, products []*Product) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return ioFailure(err)
	}
	for _, p := range products {
		exit := ""
		if p.exitDate != nil {
			exit = FormatDate(*p.exitDate)
		}
		record := []string{
			strconv.FormatInt(p.id, 10),
			p.name,
			p.price.String(),
			p.basePrice.String(),
			strconv.Itoa(p.quantity),
			p.category,
			FormatDate(p.entryDate),
			exit,
		}
		if err := writer.Write(record); err != nil {
			return ioFailure(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return ioFailure(err)
	}
	return nil
}

// ReadCSV parses products written by WriteCSV. Columns are located by header
// name. An empty or unparsable entry date is replaced by today's date and an
// unparsable exit date is dropped; both cases are reported as warnings.
func ReadCSV(r io.Reader) ([]*Product, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, ioFailure(err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("inventory: missing column %q: %w", col, shared.ErrIOFailure)
		}
	}

	var (
		products []*Product
		warnings []string
	)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, ioFailure(err)
		}
		field := func(col string) string {
			idx := index[col]
			if idx >= len(record) {
				return ""
			}
			return record[idx]
		}
		p, rowWarnings, err := parseRow(field)
		if err != nil {
			return nil, nil, fmt.Errorf("inventory: line %d: %w: %w", line, shared.ErrIOFailure, err)
		}
		for _, w := range rowWarnings {
			warnings = append(warnings, fmt.Sprintf("line %d: %s", line, w))
		}
		products = append(products, p)
	}
	return products, warnings, nil
}

func parseRow(value func(string) string) (*Product, []string, error) {
	var warnings []string
	field := func(col string) string { return strings.TrimSpace(value(col)) }
	id, err := strconv.ParseInt(field("id"), 10, 64)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid id %q", field("id"))
	}
	price, err := decimal.NewFromString(field("price"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid price %q", field("price"))
	}
	base, err := decimal.NewFromString(field("base_price"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid base_price %q", field("base_price"))
	}
	qty, err := strconv.Atoi(field("quantity"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid quantity %q", field("quantity"))
	}

	entry := Today()
	if raw := field("entry_date"); raw == "" {
		warnings = append(warnings, fmt.Sprintf("product %d has no entry date, using %s", id, FormatDate(entry)))
	} else if parsed, err := ParseDate(raw); err != nil {
		warnings = append(warnings, fmt.Sprintf("product %d has invalid entry date %q, using %s", id, raw, FormatDate(entry)))
	} else {
		entry = parsed
	}
	params := ProductParams{
		ID:        id,
		Name:      value("name"),
		Price:     price,
		BasePrice: base,
		Quantity:  qty,
		Category:  value("category"),
		EntryDate: entry,
	}
	if raw := field("exit_date"); raw != "" {
		if parsed, err := ParseDate(raw); err != nil {
			warnings = append(warnings, fmt.Sprintf("product %d has invalid exit date %q, treating it as in stock", id, raw))
		} else {
			params.ExitDate = &parsed
		}
	}
	if base.Sign() <= 0 {
		return nil, nil, invalid("base price must be greater than 0")
	}
	p, err := newProduct(params, ReasonLoaded)
	if err != nil {
		return nil, nil, err
	}
	return p, warnings, nil
}

func ioFailure(err error) error {
	return fmt.Errorf("inventory: %w: %w", shared.ErrIOFailure, err)
}
