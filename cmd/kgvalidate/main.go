// Command kgvalidate checks corpus files against the schema.
//
//	kgvalidate [-format text|json|yaml] <file-or-directory>
//
// It exits 0 when every file is valid and 1 otherwise.
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
	fs := flag.NewFlagSet("kgvalidate", flag.ContinueOnError)
	format := fs.String("format", "text", "Output format: text, json or yaml")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: kgvalidate [-format text|json|yaml] <file-or-directory>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Please provide a path to a Cypher file or directory")
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
		fmt.Fprintf(os.Stderr, "Error during validation: %v\n", err)
		return 1
	}

	r, err := e.ValidatePath(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during validation: %v\n", err)
		return 1
	}
	if err := report.WriteValidation(stdout, r, outFormat); err != nil {
		log.Error("Failed to write report", zap.Error(err))
		return 1
	}
	return r.ExitCode()
}
