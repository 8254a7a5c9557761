package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/logger"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
	"github.com/ironsheep/docscan-mcp/internal/server"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run serves MCP on stdin/stdout until ctx ends or stdin closes and returns
// the process exit code. The history database is closed before it returns.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := ff.NewFlagSet("docscan-mcp")
	flags := config.RegisterFlags(fs)
	showVersion := fs.BoolLong("version", "print version information")

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix("DOCSCAN"),
	); err != nil {
		fmt.Fprintf(stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if *showVersion {
		fmt.Fprintf(stdout, "docscan-mcp %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	}

	cfg, err := flags.Service()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	// Logs go to stderr; stdout carries the MCP protocol.
	logger.SetLevel(cfg.LogLevel)
	logger.WithField("version", Version).WithField("commit", GitCommit).Debug("starting docscan-mcp")

	sc, err := scanner.New(cfg.Pipeline, scanner.WithWorkers(cfg.Workers))
	if err != nil {
		logger.WithError(err).Error("invalid pipeline configuration")
		return 1
	}

	opts := []server.Option{
		server.WithVersion(Version),
		server.WithCacheEntries(cfg.CacheEntries),
	}
	if cfg.DBPath != "" {
		db, err := store.Open(cfg.DBPath)
		if err != nil {
			logger.WithError(err).Error("failed to open scan history")
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.WithError(err).Warn("failed to close scan history")
			}
		}()
		opts = append(opts, server.WithStore(db))
	}

	if err := server.New(sc, opts...).Serve(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("server error")
		return 1
	}
	return 0
}
