// Command mcp-echo serves a small set of demo tools over the manifest and
// call endpoints so the workbench has something to talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/mcp-workbench/internal/bridge"
	"github.com/bobmcallan/mcp-workbench/internal/common"
	"github.com/bobmcallan/mcp-workbench/internal/config"
)

var (
	echoPort     int
	echoHost     string
	echoToken    string
	echoLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "mcp-echo",
	Short: "Demo tool server for the MCP workbench",
	RunE:  runEcho,
}

func init() {
	rootCmd.Version = config.GetVersion()
	rootCmd.Flags().IntVarP(&echoPort, "port", "p", 8443, "Listen port")
	rootCmd.Flags().StringVar(&echoHost, "host", "localhost", "Listen host")
	rootCmd.Flags().StringVar(&echoToken, "token", "", "Require this bearer token")
	rootCmd.Flags().StringVar(&echoLogLevel, "log-level", "info", "Log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runEcho(_ *cobra.Command, _ []string) error {
	logger := common.NewLogger(echoLogLevel)

	b := bridge.New(bridge.DemoServer(), "mcp-echo", config.GetVersion(),
		bridge.WithToken(echoToken),
		bridge.WithLogger(logger),
	)

	httpSrv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", echoHost, echoPort),
		Handler:     b.Handler(),
		ReadTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("address", httpSrv.Addr).Bool("auth", echoToken != "").Msg("mcp-echo listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("mcp-echo stopped")
	return nil
}
