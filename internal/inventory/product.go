package inventory

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProductParams carries the fields required to create a Product.
type ProductParams struct {
	ID        int64
	Name      string
	Price     decimal.Decimal
	BasePrice decimal.Decimal // zero means "same as Price"
	Quantity  int
	Category  string
	EntryDate time.Time
	ExitDate  *time.Time
}

// Product is a single inventory line item.
type Product struct {
	id        int64
	name      string
	category  string
	entryDate time.Time
	exitDate  *time.Time
	price     decimal.Decimal
	basePrice decimal.Decimal
	quantity  int
	history   []HistoryEntry
}

// NewProduct validates params and builds a Product whose history is seeded
// with the initial quantity.
func NewProduct(params ProductParams) (*Product, error) {
	return newProduct(params, ReasonCreated)
}

func newProduct(params ProductParams, reason HistoryReason) (*Product, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, invalid("product name is required")
	}
	if params.Price.Sign() <= 0 {
		return nil, invalid("price must be greater than 0")
	}
	base := params.BasePrice
	if base.IsZero() {
		base = params.Price
	}
	if base.Sign() <= 0 {
		return nil, invalid("base price must be greater than 0")
	}
	if params.Quantity < 0 {
		return nil, invalid("quantity cannot be negative")
	}
	entry := params.EntryDate
	if entry.IsZero() {
		entry = Today()
	}
	p := &Product{
		id:        params.ID,
		name:      params.Name,
		category:  params.Category,
		entryDate: truncateDate(entry),
		price:     params.Price,
		basePrice: base,
		quantity:  params.Quantity,
	}
	if params.ExitDate != nil {
		exit := truncateDate(*params.ExitDate)
		p.exitDate = &exit
	}
	p.record(reason)
	return p, nil
}

// ID returns the immutable product id.
func (p *Product) ID() int64 { return p.id }

// Name returns the product label.
func (p *Product) Name() string { return p.name }

// Category returns the free-text classification.
func (p *Product) Category() string { return p.category }

// EntryDate returns the date the product entered stock.
func (p *Product) EntryDate() time.Time { return p.entryDate }

// ExitDate returns the date the product left stock, or nil while in stock.
func (p *Product) ExitDate() *time.Time {
	if p.exitDate == nil {
		return nil
	}
	exit := *p.exitDate
	return &exit
}

// Quantity returns the current stock level.
func (p *Product) Quantity() int { return p.quantity }

// Price returns the current selling price.
func (p *Product) Price() decimal.Decimal { return p.price }

// BasePrice returns the anchor price discounts are computed from.
func (p *Product) BasePrice() decimal.Decimal { return p.basePrice }

// History returns a copy of the quantity history.
func (p *Product) History() []HistoryEntry {
	out := make([]HistoryEntry, len(p.history))
	copy(out, p.history)
	return out
}

// RegisterEntry adds qty units to stock. A product that had left stock is
// back in stock afterwards, so its exit date is cleared.
func (p *Product) RegisterEntry(qty int) error {
	if qty <= 0 {
		return invalid("quantity must be greater than 0")
	}
	if qty > math.MaxInt-p.quantity {
		return invalid("entry of %d units overflows stock of %d", qty, p.quantity)
	}
	p.quantity += qty
	p.exitDate = nil
	p.record(ReasonEntry)
	return nil
}

// RegisterExit removes qty units from stock. Emptying the stock stamps the
// exit date.
func (p *Product) RegisterExit(qty int) error {
	if qty <= 0 {
		return invalid("quantity must be greater than 0")
	}
	if qty > p.quantity {
		return fmt.Errorf("%w: requested %d, available %d", ErrInsufficientStock, qty, p.quantity)
	}
	p.quantity -= qty
	if p.quantity == 0 {
		exit := Today()
		p.exitDate = &exit
	}
	p.record(ReasonExit)
	return nil
}

// SetPrice replaces the current price only.
func (p *Product) SetPrice(value decimal.Decimal) error {
	if value.Sign() <= 0 {
		return invalid("price must be greater than 0")
	}
	p.price = value
	return nil
}

// SetBasePrice replaces the base price and re-anchors the current price to it,
// discarding any discount.
func (p *Product) SetBasePrice(value decimal.Decimal) error {
	if value.Sign() <= 0 {
		return invalid("base price must be greater than 0")
	}
	p.basePrice = value
	p.price = value
	return nil
}

// ApplyDiscount sets the price to BasePrice*(100-pct)/100. Repeated calls do
// not compound.
func (p *Product) ApplyDiscount(pct decimal.Decimal) error {
	factor, err := discountFactor(pct)
	if err != nil {
		return err
	}
	if err := p.SetPrice(p.basePrice.Mul(factor)); err != nil {
		return invalid("discount of %s%% leaves no price", pct.String())
	}
	return nil
}

// ApplyIncrementalDiscount sets the price to Price*(100-pct)/100, compounding
// with earlier discounts.
func (p *Product) ApplyIncrementalDiscount(pct decimal.Decimal) error {
	factor, err := discountFactor(pct)
	if err != nil {
		return err
	}
	if err := p.SetPrice(p.price.Mul(factor)); err != nil {
		return invalid("discount of %s%% leaves no price", pct.String())
	}
	return nil
}

// ResetPrice discards any discount.
func (p *Product) ResetPrice() {
	p.price = p.basePrice
}

// Describe renders the product as a single report line.
func (p *Product) Describe() string {
	exit := "N/A"
	if p.exitDate != nil {
		exit = FormatDate(*p.exitDate)
	}
	return fmt.Sprintf("ID: %d, Name: %s, Price: $%s, Quantity: %d, Category: %s, Entry Date: %s, Exit Date: %s",
		p.id, p.name, p.price.StringFixed(2), p.quantity, p.category, FormatDate(p.entryDate), exit)
}

// String implements fmt.Stringer.
func (p *Product) String() string {
	return p.Describe()
}

// Clone returns a deep copy of p.
func (p *Product) Clone() *Product {
	c := *p
	c.exitDate = p.ExitDate()
	c.history = p.History()
	return &c
}

func (p *Product) setQuantity(qty int) error {
	if qty < 0 {
		return invalid("quantity cannot be negative")
	}
	p.quantity = qty
	p.record(ReasonCorrection)
	return nil
}

func (p *Product) record(reason HistoryReason) {
	p.history = append(p.history, HistoryEntry{At: nowFunc(), Quantity: p.quantity, Reason: reason})
}

func discountFactor(pct decimal.Decimal) (decimal.Decimal, error) {
	if pct.Sign() < 0 || pct.GreaterThan(hundred) {
		return decimal.Decimal{}, invalid("discount percentage must be between 0 and 100")
	}
	return hundred.Sub(pct).Div(hundred), nil
}
