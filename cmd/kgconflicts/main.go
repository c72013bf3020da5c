// Command kgconflicts detects cross-entity conflicts in the corpus.
//
//	kgconflicts [-symbols-only] [-watch] [-format text|json|yaml]
//
// Findings are advisory: it exits 0 whenever the analysis ran.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"kgcheck/internal/engine"
	"kgcheck/internal/report"
	"kgcheck/internal/watch"
	"kgcheck/pkg/config"
	"kgcheck/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("kgconflicts", flag.ContinueOnError)
	symbolsOnly := fs.Bool("symbols-only", false, "Only run the symbol conflict checks")
	watchMode := fs.Bool("watch", false, "Re-run the analysis whenever corpus files change")
	format := fs.String("format", "text", "Output format: text, json or yaml")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	outFormat, err := report.ParseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if err := logger.InitWithLevel(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := engine.New(cfg)
	if err != nil {
		log.Error("Failed to load schema", zap.Error(err))
		return 1
	}

	if err := analyze(ctx, stdout, e, *symbolsOnly, outFormat); err != nil {
		log.Error("Conflict detection failed", zap.Error(err))
		return 1
	}
	if !*watchMode {
		return 0
	}

	w, err := watch.New(e.CorpusDirs(), cfg.Extension, time.Duration(cfg.WatchDebounceMS)*time.Millisecond)
	if err != nil {
		log.Error("Failed to start watcher", zap.Error(err))
		return 1
	}
	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		log.Info("Re-running conflict detection", zap.Int("changed", len(changed)))
		if err := analyze(ctx, stdout, e, *symbolsOnly, outFormat); err != nil {
			log.Error("Conflict detection failed", zap.Error(err))
		}
	})
	if err != nil {
		log.Error("Watcher failed", zap.Error(err))
		return 1
	}
	return 0
}

func analyze(ctx context.Context, stdout io.Writer, e *engine.Engine, symbolsOnly bool, format report.Format) error {
	r, err := e.Conflicts(ctx, symbolsOnly)
	if err != nil {
		return err
	}
	if format == report.FormatText {
		fmt.Fprintf(stdout, "Analyzed %d symbol nodes in %d files\n", r.Symbols, r.Files)
	}
	return report.WriteConflicts(stdout, r, format)
}
