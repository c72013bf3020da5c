// Command kgconsistency checks the entities of one type for naming, format
// and relationship consistency.
//
//	kgconsistency [-format text|json|yaml] <EntityType> [name-filter]
//
// It always exits 0 once the checks have run.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"kgcheck/internal/engine"
	"kgcheck/internal/report"
	"kgcheck/pkg/config"
	"kgcheck/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("kgconsistency", flag.ContinueOnError)
	format := fs.String("format", "text", "Output format: text, json or yaml")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kgconsistency [-format text|json|yaml] <EntityType> [name-filter]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Please provide an entity type (e.g., Symbol, MathematicalConcept, NumericalMethod)")
		return 1
	}
	entityType, nameFilter := fs.Arg(0), fs.Arg(1)

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

	r, err := e.Consistency(ctx, entityType, nameFilter)
	if err != nil {
		log.Error("Consistency check failed", zap.Error(err))
		return 1
	}

	if len(r.Results) == 0 && outFormat == report.FormatText {
		if nameFilter != "" {
			fmt.Fprintf(stdout, "No %s files found for %s\n", entityType, nameFilter)
		} else {
			fmt.Fprintf(stdout, "No %s files found\n", entityType)
		}
		return 0
	}
	if err := report.WriteValidation(stdout, r, outFormat); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		return 1
	}
	return 0
}
