package cli

import (
	"fmt"

	"github.com/logistock/logistock/internal/shared"
)

func runSync(s *session, args []string) error {
	if len(args) == 0 {
		return usagef("expected pg-push or pg-pull")
	}
	if _, err := positional(s, "sync "+args[0], args[1:]); err != nil {
		return err
	}
	if args[0] != "pg-push" && args[0] != "pg-pull" {
		return usagef("unknown sync subcommand %q", args[0])
	}
	if s.rt.Mirror == nil {
		return fmt.Errorf("%w: sync requires PG_DSN", shared.ErrInvalidArgument)
	}
	switch args[0] {
	case "pg-push":
		if err := s.load(); err != nil {
			return err
		}
		if err := s.rt.Service.SaveTo(s.ctx, s.rt.Mirror); err != nil {
			return err
		}
		s.notifier.Notify(shared.Success("Sync", fmt.Sprintf("Pushed %d products to PostgreSQL.", s.rt.Service.Len())))
	default:
		res, err := s.rt.Service.LoadFrom(s.ctx, s.rt.Mirror)
		if err != nil {
			return err
		}
		if o := res.Outcome(); o.Kind != shared.OutcomeSuccess {
			s.notifier.Notify(o)
		}
		if err := s.rt.Service.Save(s.ctx); err != nil {
			return err
		}
		s.notifier.Notify(shared.Success("Sync", fmt.Sprintf("Pulled %d products into %s.", res.Loaded, s.rt.Files.Path())))
	}
	return nil
}
