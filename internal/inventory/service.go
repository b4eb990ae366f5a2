package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ChangeListener is told after every successful ledger mutation.
type ChangeListener interface {
	Bump(ctx context.Context) error
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Logger   *slog.Logger
	Audit    AuditPort
	Listener ChangeListener
}

// Service coordinates inventory operations on a single ledger. It serialises
// access so adapters serving concurrent callers stay memory safe.
type Service struct {
	mu       sync.RWMutex
	ledger   *Ledger
	store    Store
	logger   *slog.Logger
	audit    AuditPort
	listener ChangeListener
	validate *validator.Validate
}

// NewService builds Service around an empty ledger persisted by store.
func NewService(store Store, cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ledger:   NewLedger(),
		store:    store,
		logger:   logger,
		audit:    cfg.Audit,
		listener: cfg.Listener,
		validate: newValidator(),
	}
}

// AddProduct validates req and appends a new product.
func (s *Service) AddProduct(ctx context.Context, req AddProductRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	params, err := req.params()
	if err != nil {
		return ProductView{}, err
	}
	p, err := NewProduct(params)
	if err != nil {
		return ProductView{}, err
	}

	s.mu.Lock()
	err = s.ledger.Add(p)
	view := ViewOf(p)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("add product rejected", slog.Int64("product_id", req.ID), slog.Any("error", err))
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:add", req.ID, map[string]any{"name": view.Name, "quantity": view.Quantity})
	return view, nil
}

// RemoveProduct deletes the product with id.
func (s *Service) RemoveProduct(ctx context.Context, id int64) (ProductView, error) {
	s.mu.Lock()
	p, err := s.ledger.Remove(id)
	s.mu.Unlock()
	if err != nil {
		return ProductView{}, err
	}
	view := ViewOf(p)
	s.changed(ctx, "inventory:remove", id, map[string]any{"name": view.Name})
	return view, nil
}

// FindProduct returns the product with id.
func (s *Service) FindProduct(ctx context.Context, id int64) (ProductView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ledger.Find(id)
	if !ok {
		return ProductView{}, notFound(id)
	}
	return ViewOf(p), nil
}

// ListProducts returns the product description lines.
func (s *Service) ListProducts(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.List()
}

// Products returns a view of every product in insertion order.
func (s *Service) Products(ctx context.Context) []ProductView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	views := make([]ProductView, 0, s.ledger.Len())
	for _, p := range s.ledger.products {
		views = append(views, ViewOf(p))
	}
	return views
}

// UpdateQuantity overwrites the quantity of a product. This is an
// administrative correction and bypasses entry/exit checks.
func (s *Service) UpdateQuantity(ctx context.Context, req UpdateQuantityRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error {
		return s.ledger.UpdateQuantity(req.ID, req.Quantity)
	})
	if err != nil {
		return ProductView{}, err
	}
	s.logger.Info("quantity corrected", slog.Int64("product_id", req.ID), slog.Int("quantity", req.Quantity))
	s.changed(ctx, "inventory:correction", req.ID, map[string]any{"quantity": req.Quantity})
	return view, nil
}

// RegisterEntry adds stock to a product.
func (s *Service) RegisterEntry(ctx context.Context, req MovementRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error { return p.RegisterEntry(req.Quantity) })
	if err != nil {
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:entry", req.ID, map[string]any{"qty": req.Quantity, "balance": view.Quantity})
	return view, nil
}

// RegisterExit removes stock from a product.
func (s *Service) RegisterExit(ctx context.Context, req MovementRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error { return p.RegisterExit(req.Quantity) })
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			s.logger.Warn("exit exceeds stock", slog.Int64("product_id", req.ID), slog.Int("qty", req.Quantity))
		}
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:exit", req.ID, map[string]any{"qty": req.Quantity, "balance": view.Quantity})
	return view, nil
}

// SetPrice replaces the current price of a product.
func (s *Service) SetPrice(ctx context.Context, req PriceRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error { return p.SetPrice(req.Value) })
	if err != nil {
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:price", req.ID, map[string]any{"price": req.Value.String()})
	return view, nil
}

// SetBasePrice replaces the base price, which also resets the current price.
func (s *Service) SetBasePrice(ctx context.Context, req PriceRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error { return p.SetBasePrice(req.Value) })
	if err != nil {
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:base_price", req.ID, map[string]any{"base_price": req.Value.String()})
	return view, nil
}

// ApplyDiscount discounts a product from its base price, or from its current
// price when req.Incremental is set.
func (s *Service) ApplyDiscount(ctx context.Context, req DiscountRequest) (ProductView, error) {
	if err := s.validate.Struct(req); err != nil {
		return ProductView{}, validationError(err)
	}
	view, err := s.mutate(req.ID, func(p *Product) error {
		if req.Incremental {
			return p.ApplyIncrementalDiscount(req.Percent)
		}
		return p.ApplyDiscount(req.Percent)
	})
	if err != nil {
		return ProductView{}, err
	}
	action := "inventory:discount"
	if req.Incremental {
		action = "inventory:incremental_discount"
	}
	s.logger.Info("discount applied",
		slog.Int64("product_id", req.ID),
		slog.String("percent", req.Percent.String()),
		slog.Bool("incremental", req.Incremental),
		slog.String("price", view.Price.StringFixed(2)))
	s.changed(ctx, action, req.ID, map[string]any{"percent": req.Percent.String(), "price": view.Price.String()})
	return view, nil
}

// ResetPrice discards any discount on a product.
func (s *Service) ResetPrice(ctx context.Context, id int64) (ProductView, error) {
	view, err := s.mutate(id, func(p *Product) error {
		p.ResetPrice()
		return nil
	})
	if err != nil {
		return ProductView{}, err
	}
	s.changed(ctx, "inventory:reset_price", id, map[string]any{"price": view.Price.String()})
	return view, nil
}

// Save persists the ledger to the primary store.
func (s *Service) Save(ctx context.Context) error {
	return s.SaveTo(ctx, s.store)
}

// SaveTo persists the ledger to store.
func (s *Service) SaveTo(ctx context.Context, store Store) error {
	if store == nil {
		return errors.New("inventory: store not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := store.Save(ctx, s.ledger); err != nil {
		s.logger.Error("save inventory", slog.Any("error", err))
		return err
	}
	s.logger.Info("inventory saved", slog.Int("products", s.ledger.Len()))
	return nil
}

// Load replaces the ledger with the primary store contents.
func (s *Service) Load(ctx context.Context) (LoadResult, error) {
	return s.LoadFrom(ctx, s.store)
}

// LoadFrom replaces the ledger with the contents of store. A missing source is
// reported through LoadResult.Missing and is not an error.
func (s *Service) LoadFrom(ctx context.Context, store Store) (LoadResult, error) {
	if store == nil {
		return LoadResult{}, errors.New("inventory: store not configured")
	}
	s.mu.Lock()
	res, err := store.Load(ctx, s.ledger)
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("load inventory", slog.Any("error", err))
		return LoadResult{}, err
	}
	for _, w := range res.Warnings {
		s.logger.Warn("load inventory", slog.String("warning", w))
	}
	s.bump(ctx)
	return res, nil
}

// Snapshot returns a deep copy of the ledger for read-only consumers.
func (s *Service) Snapshot() *Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Snapshot()
}

// Len reports the number of products.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Len()
}

func (s *Service) mutate(id int64, fn func(p *Product) error) (ProductView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ledger.Find(id)
	if !ok {
		return ProductView{}, notFound(id)
	}
	if err := fn(p); err != nil {
		return ProductView{}, fmt.Errorf("inventory: product %d: %w", id, err)
	}
	return ViewOf(p), nil
}

func (s *Service) changed(ctx context.Context, action string, id int64, meta map[string]any) {
	s.bump(ctx)
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	}); err != nil {
		s.logger.Warn("audit record", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) bump(ctx context.Context) {
	if s.listener == nil {
		return
	}
	if err := s.listener.Bump(ctx); err != nil {
		s.logger.Warn("bump report cache", slog.Any("error", err))
	}
}

// ParseDecimal parses a user-supplied decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, invalid("invalid decimal %q", value)
	}
	return d, nil
}
