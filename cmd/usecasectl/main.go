// usecasectl runs demonstration scenarios against an execution context
// and prints the resulting event stream.
//
// Scenarios:
//
//	nested   a checkout that awaits a child reservation
//	late     a parent that releases before its child dispatches
//	failure  a run that returns an error and a run that panics
//	all      every scenario in order
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/xraph/usecase"
	audithook "github.com/xraph/usecase/audit_hook"
	"github.com/xraph/usecase/engine"
	"github.com/xraph/usecase/store"
	"github.com/xraph/usecase/stream"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var scenarios = map[string]func(ctx context.Context, eng *engine.Context) error{
	"nested":  runNested,
	"late":    runLate,
	"failure": runFailure,
}

var scenarioOrder = []string{"nested", "late", "failure"}

func run(args []string, stdout, stderr io.Writer) error {
	var configPath, scenario, logLevel string
	var jsonLogs, audit bool

	flagSet := pflag.NewFlagSet("usecasectl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML configuration file")
	flagSet.StringVarP(&scenario, "scenario", "s", "all", "scenario to run: nested, late, failure or all")
	flagSet.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flagSet.BoolVar(&jsonLogs, "json", false, "write logs as JSON")
	flagSet.BoolVar(&audit, "audit", false, "log an audit record for every run event")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	selected, err := selectScenarios(scenario)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, logLevel, jsonLogs)
	if err != nil {
		return err
	}

	cfg := usecase.DefaultConfig()
	if configPath != "" {
		if cfg, err = usecase.LoadConfig(configPath); err != nil {
			return err
		}
	}

	orders := store.New("orders", 0, countOrders, store.WithLogger(logger))
	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithConfig(cfg),
		engine.WithStore(orders),
	}
	if audit {
		opts = append(opts, engine.WithExtension(audithook.New(logRecorder(logger), audithook.WithLogger(logger))))
	}
	eng, err := engine.New(opts...)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	sub := eng.Broker().Subscribe("", stream.TopicFirehose)
	stdout = &syncWriter{w: stdout}

	ctx := context.Background()
	var g errgroup.Group
	g.Go(func() error {
		for evt := range sub.C() {
			if _, werr := fmt.Fprintf(stdout, "%-22s %-14s %s\n", evt.Type, evt.UseCase, evt.Data); werr != nil {
				return werr
			}
		}
		return nil
	})

	var runErr error
	for _, name := range selected {
		fmt.Fprintf(stdout, "== %s\n", name)
		if err := scenarios[name](ctx, eng); err != nil {
			runErr = fmt.Errorf("scenario %s: %w", name, err)
			break
		}
	}

	if err := eng.Release(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		fmt.Fprintf(stdout, "orders placed: %v\n", orders.State())
	}
	return runErr
}

// syncWriter serializes writes from the scenario runner and the event
// printer.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func selectScenarios(name string) ([]string, error) {
	if name == "all" {
		return scenarioOrder, nil
	}
	if _, ok := scenarios[name]; !ok {
		return nil, fmt.Errorf("unknown scenario %q (want %s or all)", name, strings.Join(scenarioOrder, ", "))
	}
	return []string{name}, nil
}

func newLogger(w io.Writer, level string, jsonFormat bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func logRecorder(logger *slog.Logger) audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		logger.Info("audit",
			slog.String("action", evt.Action),
			slog.String("resource_id", evt.ResourceID),
			slog.String("outcome", evt.Outcome),
		)
		return nil
	})
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `usecasectl runs use case scenarios and prints every stream event.

Usage:
  usecasectl [flags]

Flags:
%s`, flagSet.FlagUsages())
}
