package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/herrhippopotamus/trading-rustix/analytics"
	"github.com/herrhippopotamus/trading-rustix/cache"
	"github.com/herrhippopotamus/trading-rustix/config"
	"github.com/herrhippopotamus/trading-rustix/portfolio"
	"github.com/herrhippopotamus/trading-rustix/server"
	"github.com/herrhippopotamus/trading-rustix/service"
	"github.com/herrhippopotamus/trading-rustix/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP service",
	Long: `Start the HTTP API backed by the sqlite market data store.

Example:
  rustixd serve -f rustix.yaml`,
	RunE: runServe,
}

var serveConfigPath string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if serveConfigPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(serveConfigPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ttl, err := cfg.Cache.ParseTTL()
	if err != nil {
		return fmt.Errorf("cache ttl: %w", err)
	}

	eng := analytics.NewEngine(st, cache.New(ttl))
	svc := service.New(log, st, eng, portfolio.NewProfitEngine(eng))
	srv := server.New(log, svc, cfg.Server.Listen)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Run() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout, err := cfg.Server.ParseShutdownTimeout()
	if err != nil {
		timeout = 0
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
