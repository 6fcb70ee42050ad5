package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"mcp-tool-service/internal/server"
	"mcp-tool-service/pkg/catalog"
	"mcp-tool-service/pkg/config"
	mcperrors "mcp-tool-service/pkg/errors"
	"mcp-tool-service/pkg/logging"
)

const name = "mcp-server"

// options holds the parsed command line
type options struct {
	overrides   config.Overrides
	showVersion bool
}

func main() {
	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.overrides.ConfigPath, "config", "", "Path to a YAML configuration file (env "+config.EnvConfigPath+")")
	fs.StringVar(&opts.overrides.LogLevel, "log-level", "", "Logging level: DEBUG, INFO, WARN or ERROR (env "+config.EnvLogLevel+")")
	fs.StringVar(&opts.overrides.Transport, "transport", "", "Transport: stdio or http (env "+config.EnvTransport+")")
	fs.StringVar(&opts.overrides.HTTPAddr, "http-addr", "", "Listen address for the http transport (env "+config.EnvHTTPAddr+")")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options]\n\n", name)
		fmt.Fprintf(stderr, "Serves the built-in tools over the Model Context Protocol.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// run starts the server and blocks until the transport finishes or ctx is
// cancelled. Logs go to stderr; stdout carries only protocol messages.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load(opts.overrides, nil)
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Fprintf(stderr, "%s v%s\n", cfg.Server.Name, cfg.Server.Version)
		return nil
	}

	loggingManager := logging.NewLoggingManagerWithWriter(stderr)
	loggingManager.SetLogLevel(cfg.Log.Level)
	loggingManager.SetGlobalContext("service", cfg.Server.Name)
	loggingManager.SetGlobalContext("version", cfg.Server.Version)
	loggingManager.LogConfigWarnings(cfg.Path, cfg.Warnings)

	registry, err := catalog.NewRegistry()
	if err != nil {
		structuredErr := mcperrors.NewSystemError(mcperrors.ErrCodeInitializationFailed, "Failed to build tool registry", err)
		loggingManager.LogError("startup", structuredErr, "Failed to build tool registry", nil)
		return fmt.Errorf("failed to build tool registry: %w", err)
	}

	mcpServer := server.NewMCPServer(cfg, registry, loggingManager)
	mcpServer.SetStdio(stdin, stdout)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// The watcher has nothing left to do once the transport is done
		defer cancel()
		return mcpServer.Start(gctx)
	})

	if cfg.Watch && cfg.Path != "" {
		g.Go(func() error {
			return mcpServer.WatchConfig(gctx, func() (*config.Config, error) {
				return config.Load(opts.overrides, nil)
			})
		})
	}

	runErr := g.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := mcpServer.Shutdown(shutdownCtx); err != nil {
		loggingManager.LogError("shutdown", err, "Error during shutdown", nil)
	}

	if runErr != nil {
		loggingManager.LogError("server", runErr, "MCP server error", nil)
	}
	return runErr
}
