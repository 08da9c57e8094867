// Command glyphserve serves glyph recognition over HTTP.
//
//	glyphserve [-config glyphnet.yaml] [-addr :8080] <model>
//
// See package internal/server for the routes. The PORT environment
// variable overrides the configured address; -addr overrides both.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/born-ml/glyphnet/internal/config"
	"github.com/born-ml/glyphnet/internal/loader"
	"github.com/born-ml/glyphnet/internal/server"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run serves until ctx is cancelled.
func run(ctx context.Context, args []string, _, stderr io.Writer) int {
	fs := flag.NewFlagSet("glyphserve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML configuration file")
	addr := fs.String("addr", "", "listen address (overrides server.addr and PORT)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: glyphserve [flags] <model>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "glyphserve: %v\n", err)
		return exitFailure
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "glyphserve: %v\n", err)
		return exitFailure
	}

	clf, err := loader.LoadClassifier(fs.Arg(0), cfg, logger)
	if err != nil {
		logger.Error("cannot load model", "error", err)
		return exitFailure
	}

	if err := server.New(clf, cfg.Server, logger).ListenAndServe(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		return exitFailure
	}
	logger.Info("server stopped")
	return exitOK
}
