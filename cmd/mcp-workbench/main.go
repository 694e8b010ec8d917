package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/mcp-workbench/internal/app"
	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/config"
	"github.com/bobmcallan/mcp-workbench/internal/server"
)

const shutdownTimeout = 10 * time.Second

// stringList collects a repeatable flag such as -config.
type stringList []string

func (l *stringList) String() string     { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error { *l = append(*l, v); return nil }

type options struct {
	configFiles stringList
	port        int
	host        string
	version     bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mcp-workbench", flag.ContinueOnError)
	fs.Var(&opts.configFiles, "config", "Configuration file path (repeatable)")
	fs.Var(&opts.configFiles, "c", "Configuration file path (shorthand)")
	fs.IntVar(&opts.port, "port", 0, "Server port (overrides config)")
	fs.IntVar(&opts.port, "p", 0, "Server port (shorthand)")
	fs.StringVar(&opts.host, "host", "", "Server host (overrides config)")
	fs.BoolVar(&opts.version, "version", false, "Print version information")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "mcp-workbench version %s\n", config.GetFullVersion())
		return nil
	}

	cfg, files, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	logger.Info().
		Int("port", cfg.Server.Port).
		Str("host", cfg.Server.Host).
		Str("environment", cfg.Environment).
		Str("default_server_url", cfg.Client.DefaultServerURL).
		Str("config_files", strings.Join(files, ",")).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Str("error", err.Error()).Msg("application shutdown failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, server.New(application), logger); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// serve runs srv until ctx is cancelled or the listener fails.
func serve(ctx context.Context, srv *server.Server, logger *common.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// loadConfig resolves the config files, applies flag overrides and
// validates the result. It returns the files actually read.
func loadConfig(opts *options) (*config.Config, []string, error) {
	files := []string(opts.configFiles)
	if len(files) == 0 {
		if found := firstExisting(configSearchPaths()); found != "" {
			files = []string{found}
		}
	}

	cfg, err := config.LoadFromFiles(files...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	config.ApplyFlagOverrides(cfg, opts.port, opts.host)

	if issues := cfg.Validate(); len(issues) > 0 {
		var b strings.Builder
		b.WriteString("configuration error: mandatory fields are missing or invalid:\n")
		for _, issue := range issues {
			fmt.Fprintf(&b, "  - %s\n", issue)
		}
		b.WriteString("see config/mcp-workbench.toml; values may also come from MCPW_* variables or flags")
		return nil, nil, errors.New(b.String())
	}
	return cfg, files, nil
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// configSearchPaths lists candidate TOML files, next to the binary first,
// then relative to the working directory. Duplicates are dropped.
func configSearchPaths() []string {
	const name = "mcp-workbench.toml"
	var paths []string
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths, filepath.Join(dir, name), filepath.Join(dir, "config", name))
	}
	paths = append(paths, name, filepath.Join("config", name), filepath.Join("docker", name))

	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}

func newLogger(cfg *config.Config) *common.Logger {
	return common.NewLoggerFromConfig(common.LoggingConfig{
		Level:      cfg.Logging.Level,
		Outputs:    cfg.Logging.Outputs,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
}
