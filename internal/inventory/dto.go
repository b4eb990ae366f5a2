package inventory

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/shared"
)

// AddProductRequest carries the fields of a new product.
type AddProductRequest struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gt=0"`
	BasePrice decimal.Decimal `json:"base_price" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"gte=0"`
	Category  string          `json:"category"`
	EntryDate string          `json:"entry_date" validate:"omitempty,datetime=2006-01-02"`
	ExitDate  string          `json:"exit_date" validate:"omitempty,datetime=2006-01-02"`
}

// MovementRequest registers an entry or exit of stock.
type MovementRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity" validate:"gt=0"`
}

// UpdateQuantityRequest overwrites a product's quantity.
type UpdateQuantityRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity" validate:"gte=0"`
}

// PriceRequest sets the price or base price of a product.
type PriceRequest struct {
	ID    int64           `json:"id"`
	Value decimal.Decimal `json:"value" validate:"gt=0"`
}

// DiscountRequest applies a percentage discount.
type DiscountRequest struct {
	ID          int64           `json:"id"`
	Percent     decimal.Decimal `json:"percent" validate:"gte=0,lte=100"`
	Incremental bool            `json:"incremental"`
}

// ProductView is a read-only copy of a product.
type ProductView struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	BasePrice decimal.Decimal `json:"base_price"`
	Quantity  int             `json:"quantity"`
	Category  string          `json:"category"`
	EntryDate string          `json:"entry_date"`
	ExitDate  string          `json:"exit_date,omitempty"`
	History   []HistoryEntry  `json:"history,omitempty"`
}

// ViewOf copies p into a ProductView.
func ViewOf(p *Product) ProductView {
	v := ProductView{
		ID:        p.ID(),
		Name:      p.Name(),
		Price:     p.Price(),
		BasePrice: p.BasePrice(),
		Quantity:  p.Quantity(),
		Category:  p.Category(),
		EntryDate: FormatDate(p.EntryDate()),
		History:   p.History(),
	}
	if exit := p.ExitDate(); exit != nil {
		v.ExitDate = FormatDate(*exit)
	}
	return v
}

func (r AddProductRequest) params() (ProductParams, error) {
	params := ProductParams{
		ID:        r.ID,
		Name:      strings.TrimSpace(r.Name),
		Price:     r.Price,
		BasePrice: r.BasePrice,
		Quantity:  r.Quantity,
		Category:  strings.TrimSpace(r.Category),
		EntryDate: Today(),
	}
	if r.EntryDate != "" {
		entry, err := ParseDate(r.EntryDate)
		if err != nil {
			return ProductParams{}, err
		}
		params.EntryDate = entry
	}
	if r.ExitDate != "" {
		exit, err := ParseDate(r.ExitDate)
		if err != nil {
			return ProductParams{}, err
		}
		params.ExitDate = &exit
	}
	return params, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", shared.ErrInvalidArgument, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", fe.Field(), strings.ReplaceAll(fe.Param(), "2006-01-02", "YYYY-MM-DD"))
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
