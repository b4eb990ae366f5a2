// Package cli implements the logistock command line.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/logistock/logistock/internal/app"
	"github.com/logistock/logistock/internal/inventory"
	"github.com/logistock/logistock/internal/shared"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Options configures a CLI invocation.
type Options struct {
	Config *app.Config
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
	// NoColor disables ANSI colours in outcome output.
	NoColor bool
}

// command is one subcommand. load and save control whether the inventory
// file is read before and written after run.
type command struct {
	summary string
	load    bool
	save    bool
	run     func(s *session, args []string) error
}

var commands = map[string]command{
	"add":          {summary: "add a product", load: true, save: true, run: runAdd},
	"remove":       {summary: "remove a product: remove <id>", load: true, save: true, run: runRemove},
	"list":         {summary: "list all products", load: true, run: runList},
	"find":         {summary: "show one product: find <id>", load: true, run: runFind},
	"set-quantity": {summary: "overwrite a quantity: set-quantity <id> <qty>", load: true, save: true, run: runSetQuantity},
	"entry":        {summary: "register stock entering: entry <id> <qty>", load: true, save: true, run: runEntry},
	"exit":         {summary: "register stock leaving: exit <id> <qty>", load: true, save: true, run: runExit},
	"price":        {summary: "set the current price: price <id> <value>", load: true, save: true, run: runPrice},
	"base-price":   {summary: "set the base price: base-price <id> <value>", load: true, save: true, run: runBasePrice},
	"discount":     {summary: "apply a discount: discount [-incremental] <id> <pct>", load: true, save: true, run: runDiscount},
	"reset-price":  {summary: "drop any discount: reset-price <id>", load: true, save: true, run: runResetPrice},
	"report":       {summary: "print or export a report: report current|history|export", load: true, run: runReport},
	"serve":        {summary: "serve the HTTP API", load: true, run: runServe},
	"sync":         {summary: "copy the inventory to or from PostgreSQL: sync pg-push|pg-pull", run: runSync},
	"jobs":         {summary: "inspect the export queue: jobs stats|scheduled", run: runJobs},
}

// session carries the per-invocation state shared by commands.
type session struct {
	ctx      context.Context
	opts     Options
	rt       *app.Runtime
	notifier *ColorNotifier
}

// Run executes the command line in args and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := configOrDefault(opts.Config)

	global := flag.NewFlagSet("logistock", flag.ContinueOnError)
	global.SetOutput(opts.Stderr)
	global.StringVar(&cfg.InventoryFile, "file", cfg.InventoryFile, "inventory CSV file")
	global.StringVar(&cfg.CSVEncoding, "encoding", cfg.CSVEncoding, "encoding of a legacy inventory file")
	global.Usage = func() { printUsage(opts.Stderr) }
	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(opts.Stderr)
		return exitUsage
	}
	name := rest[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(opts.Stderr, "logistock: unknown command %q\n", name)
		printUsage(opts.Stderr)
		return exitUsage
	}

	notifier := NewColorNotifier(opts.Stdout, opts.Stderr, opts.NoColor)
	rt, err := app.NewRuntime(ctx, cfg, opts.Logger)
	if err != nil {
		notifier.Notify(shared.Failure("Startup", err))
		return exitError
	}
	defer rt.Close()

	s := &session{ctx: ctx, opts: opts, rt: rt, notifier: notifier}
	if cmd.load {
		if err := s.load(); err != nil {
			notifier.Notify(shared.Failure("Load", err))
			return exitError
		}
	}
	if err := cmd.run(s, rest[1:]); err != nil {
		var usage usageError
		if errors.As(err, &usage) {
			fmt.Fprintf(opts.Stderr, "%s: %s\n", name, usage.msg)
			return exitUsage
		}
		if errors.Is(err, flag.ErrHelp) {
			return exitUsage
		}
		if errors.Is(err, errReported) {
			return exitError
		}
		notifier.Notify(shared.Failure(title(name), err))
		return exitError
	}
	if cmd.save {
		if err := rt.Service.Save(ctx); err != nil {
			notifier.Notify(shared.Failure("Save", err))
			return exitError
		}
	}
	return exitOK
}

// configOrDefault copies cfg, falling back to defaults for a nil config.
func configOrDefault(cfg *app.Config) *app.Config {
	if cfg == nil {
		return &app.Config{
			InventoryFile: inventory.DefaultFile,
			ReportDir:     "reports",
			LogFormat:     "pretty",
			LogLevel:      "info",
		}
	}
	c := *cfg
	return &c
}

func (s *session) load() error {
	res, err := s.rt.Service.Load(s.ctx)
	if err != nil {
		return err
	}
	if o := res.Outcome(); o.Kind != shared.OutcomeSuccess {
		s.notifier.Notify(o)
	}
	return nil
}

func (s *session) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.opts.Stderr)
	return fs
}

// errReported marks a failure the notifier has already shown.
var errReported = errors.New("cli: failure already reported")

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func title(name string) string {
	return strings.ToUpper(name[:1]) + strings.ReplaceAll(name[1:], "-", " ")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: logistock [-file path] [-encoding name] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-13s %s\n", name, commands[name].summary)
	}
}
