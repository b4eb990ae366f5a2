package cli

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/shared"
)

func runAdd(s *session, args []string) error {
	fs := s.flags("add")
	var (
		req       inventory.AddProductRequest
		price     string
		basePrice string
	)
	fs.Int64Var(&req.ID, "id", 0, "product id")
	fs.StringVar(&req.Name, "name", "", "product name")
	fs.StringVar(&price, "price", "", "current price")
	fs.StringVar(&basePrice, "base-price", "", "base price; defaults to -price")
	fs.IntVar(&req.Quantity, "quantity", 0, "units in stock")
	fs.StringVar(&req.Category, "category", "", "category")
	fs.StringVar(&req.EntryDate, "entry-date", "", "entry date (YYYY-MM-DD); defaults to today")
	fs.StringVar(&req.ExitDate, "exit-date", "", "exit date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return usagef("unexpected argument %q", fs.Arg(0))
	}
	if price == "" {
		return usagef("-price is required")
	}
	var err error
	if req.Price, err = inventory.ParseDecimal(price); err != nil {
		return err
	}
	if basePrice != "" {
		if req.BasePrice, err = inventory.ParseDecimal(basePrice); err != nil {
			return err
		}
	}
	view, err := s.rt.Service.AddProduct(s.ctx, req)
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Add", fmt.Sprintf("Product %d (%s) added.", view.ID, view.Name)))
	return nil
}

func runRemove(s *session, args []string) error {
	pos, err := positional(s, "remove", args, "id")
	if err != nil {
		return err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return err
	}
	view, err := s.rt.Service.RemoveProduct(s.ctx, id)
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Remove", fmt.Sprintf("Product %d (%s) removed.", view.ID, view.Name)))
	return nil
}

func runList(s *session, args []string) error {
	if _, err := positional(s, "list", args); err != nil {
		return err
	}
	s.notifier.Print(s.rt.Service.ListProducts(s.ctx)...)
	return nil
}

func runFind(s *session, args []string) error {
	pos, err := positional(s, "find", args, "id")
	if err != nil {
		return err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return err
	}
	view, err := s.rt.Service.FindProduct(s.ctx, id)
	if err != nil {
		return err
	}
	if p, ok := s.rt.Service.Snapshot().Find(id); ok {
		s.notifier.Print(p.Describe())
	}
	for _, h := range view.History {
		s.notifier.Print(fmt.Sprintf("  %s  %-10s %d", inventory.FormatDate(h.At), h.Reason, h.Quantity))
	}
	return nil
}

func runSetQuantity(s *session, args []string) error {
	id, qty, err := idAndInt(s, "set-quantity", args)
	if err != nil {
		return err
	}
	view, err := s.rt.Service.UpdateQuantity(s.ctx, inventory.UpdateQuantityRequest{ID: id, Quantity: qty})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Set quantity", fmt.Sprintf("Product %d now has %d units.", view.ID, view.Quantity)))
	return nil
}

func runEntry(s *session, args []string) error {
	id, qty, err := idAndInt(s, "entry", args)
	if err != nil {
		return err
	}
	view, err := s.rt.Service.RegisterEntry(s.ctx, inventory.MovementRequest{ID: id, Quantity: qty})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Entry", fmt.Sprintf("Registered %d units into product %d (now %d).", qty, view.ID, view.Quantity)))
	return nil
}

func runExit(s *session, args []string) error {
	id, qty, err := idAndInt(s, "exit", args)
	if err != nil {
		return err
	}
	view, err := s.rt.Service.RegisterExit(s.ctx, inventory.MovementRequest{ID: id, Quantity: qty})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Exit", fmt.Sprintf("Registered %d units out of product %d (now %d).", qty, view.ID, view.Quantity)))
	return nil
}

func runPrice(s *session, args []string) error {
	id, value, err := idAndDecimal(s, "price", args)
	if err != nil {
		return err
	}
	view, err := s.rt.Service.SetPrice(s.ctx, inventory.PriceRequest{ID: id, Value: value})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Price", fmt.Sprintf("Product %d price set to $%s.", view.ID, view.Price.StringFixed(2))))
	return nil
}

func runBasePrice(s *session, args []string) error {
	id, value, err := idAndDecimal(s, "base-price", args)
	if err != nil {
		return err
	}
	view, err := s.rt.Service.SetBasePrice(s.ctx, inventory.PriceRequest{ID: id, Value: value})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Base price", fmt.Sprintf("Product %d base price set to $%s.", view.ID, view.BasePrice.StringFixed(2))))
	return nil
}

func runDiscount(s *session, args []string) error {
	fs := s.flags("discount")
	incremental := fs.Bool("incremental", false, "apply on top of the current price instead of the base price")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := expect(fs, "id", "percent")
	if err != nil {
		return err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return err
	}
	pct, err := inventory.ParseDecimal(pos[1])
	if err != nil {
		return err
	}
	view, err := s.rt.Service.ApplyDiscount(s.ctx, inventory.DiscountRequest{ID: id, Percent: pct, Incremental: *incremental})
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Discount", fmt.Sprintf("Product %d price is now $%s.", view.ID, view.Price.StringFixed(2))))
	return nil
}

func runResetPrice(s *session, args []string) error {
	pos, err := positional(s, "reset-price", args, "id")
	if err != nil {
		return err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return err
	}
	view, err := s.rt.Service.ResetPrice(s.ctx, id)
	if err != nil {
		return err
	}
	s.notifier.Notify(shared.Success("Reset price", fmt.Sprintf("Product %d price reset to $%s.", view.ID, view.Price.StringFixed(2))))
	return nil
}

// positional parses args with no flags and requires exactly the named
// positional arguments.
func positional(s *session, name string, args []string, names ...string) ([]string, error) {
	fs := s.flags(name)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return expect(fs, names...)
}

func expect(fs *flag.FlagSet, names ...string) ([]string, error) {
	if fs.NArg() != len(names) {
		if len(names) == 0 {
			return nil, usagef("takes no arguments")
		}
		return nil, usagef("expected arguments: %v", names)
	}
	return fs.Args(), nil
}

func idAndInt(s *session, name string, args []string) (int64, int, error) {
	pos, err := positional(s, name, args, "id", "quantity")
	if err != nil {
		return 0, 0, err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return 0, 0, err
	}
	qty, err := strconv.Atoi(pos[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid quantity %q", shared.ErrInvalidArgument, pos[1])
	}
	return id, qty, nil
}

func idAndDecimal(s *session, name string, args []string) (int64, decimal.Decimal, error) {
	pos, err := positional(s, name, args, "id", "value")
	if err != nil {
		return 0, decimal.Decimal{}, err
	}
	id, err := parseID(pos[0])
	if err != nil {
		return 0, decimal.Decimal{}, err
	}
	value, err := inventory.ParseDecimal(pos[1])
	if err != nil {
		return 0, decimal.Decimal{}, err
	}
	return id, value, nil
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid product id %q", shared.ErrInvalidArgument, value)
	}
	return id, nil
}
