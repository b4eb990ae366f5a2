package inventory

import (
	"fmt"
	"io"
	"strings"

	"github.com/logistock/logistock/internal/shared"
)

// EmptyMarker is listed in place of product lines when the ledger is empty.
const EmptyMarker = "The inventory is empty."

// Ledger is an insertion-ordered collection of products keyed by id.
type Ledger struct {
	products []*Product
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add appends p unless its id is already in use.
func (l *Ledger) Add(p *Product) error {
	if p == nil {
		return invalid("product required")
	}
	if _, ok := l.Find(p.ID()); ok {
		return fmt.Errorf("inventory: product %d: %w", p.ID(), shared.ErrDuplicateKey)
	}
	l.products = append(l.products, p)
	return nil
}

// Remove deletes the product with the given id and returns it.
func (l *Ledger) Remove(id int64) (*Product, error) {
	idx := l.indexOf(id)
	if idx < 0 {
		return nil, notFound(id)
	}
	p := l.products[idx]
	l.products = append(l.products[:idx], l.products[idx+1:]...)
	return p, nil
}

// Find returns the product with the given id.
func (l *Ledger) Find(id int64) (*Product, bool) {
	idx := l.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return l.products[idx], true
}

// UpdateQuantity overwrites a product's quantity without movement semantics.
// The overwrite is still recorded in the product history as a correction.
func (l *Ledger) UpdateQuantity(id int64, qty int) error {
	p, ok := l.Find(id)
	if !ok {
		return notFound(id)
	}
	return p.setQuantity(qty)
}

// List returns one description line per product in insertion order.
func (l *Ledger) List() []string {
	if len(l.products) == 0 {
		return []string{EmptyMarker}
	}
	lines := make([]string, 0, len(l.products))
	for _, p := range l.products {
		lines = append(lines, p.Describe())
	}
	return lines
}

// Products returns the products in insertion order. The slice is a copy; the
// products are not.
func (l *Ledger) Products() []*Product {
	out := make([]*Product, len(l.products))
	copy(out, l.products)
	return out
}

// Len reports the number of products.
func (l *Ledger) Len() int {
	return len(l.products)
}

// Snapshot returns a deep copy safe to hand to a background reader.
func (l *Ledger) Snapshot() *Ledger {
	snap := &Ledger{products: make([]*Product, len(l.products))}
	for i, p := range l.products {
		snap.products[i] = p.Clone()
	}
	return snap
}

// Save writes every product as CSV to w.
func (l *Ledger) Save(w io.Writer) error {
	return WriteCSV(w, l.products)
}

// Load replaces the ledger contents with the products read from r. On error
// the current contents are kept.
func (l *Ledger) Load(r io.Reader) (LoadResult, error) {
	products, warnings, err := ReadCSV(r)
	if err != nil {
		return LoadResult{}, err
	}
	if err := l.replace(products); err != nil {
		return LoadResult{}, err
	}
	return LoadResult{Loaded: len(products), Warnings: warnings}, nil
}

// Reset empties the ledger.
func (l *Ledger) Reset() {
	l.products = nil
}

func (l *Ledger) replace(products []*Product) error {
	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID()]; dup {
			return fmt.Errorf("inventory: product %d appears twice: %w", p.ID(), shared.ErrDuplicateKey)
		}
		seen[p.ID()] = struct{}{}
	}
	l.products = products
	return nil
}

func (l *Ledger) indexOf(id int64) int {
	for i, p := range l.products {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

func notFound(id int64) error {
	return fmt.Errorf("inventory: product with ID %d: %w", id, shared.ErrNotFound)
}

// LoadResult reports what a load produced.
type LoadResult struct {
	Loaded   int      `json:"loaded"`
	Missing  bool     `json:"missing"`
	Warnings []string `json:"warnings,omitempty"`
}

// Outcome summarises the load for presentation. A missing source is a
// warning carrying ErrNoInventoryFile.
func (r LoadResult) Outcome() shared.Outcome {
	switch {
	case r.Missing:
		o := shared.Warning("Load", strings.Join(r.Warnings, "\n"))
		o.Err = ErrNoInventoryFile
		return o
	case len(r.Warnings) > 0:
		return shared.Warning("Load", fmt.Sprintf("Loaded %d products with %d warnings:\n%s",
			r.Loaded, len(r.Warnings), strings.Join(r.Warnings, "\n")))
	default:
		return shared.Success("Load", fmt.Sprintf("Loaded %d products.", r.Loaded))
	}
}
