package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/hoard-go/config"
	"github.com/bitfsorg/hoard-go/fsstore"
	"github.com/bitfsorg/hoard-go/remote"
	"github.com/bitfsorg/hoard-go/store"
)

func newServeCmd() *cobra.Command {
	var (
		listen   string
		metrics  string
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve every store under the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			if cmd.Flags().Changed("metrics") {
				cfg.MetricsAddr = metrics
			}
			if cmd.Flags().Changed("readonly") {
				cfg.ReadOnly = readOnly
			}
			if err := config.ValidateConfig(cfg); err != nil {
				return err
			}

			out, err := config.OpenLogOutput(cfg)
			if err != nil {
				return err
			}
			defer out.Close()
			logger, err := config.NewLogger(cfg, out)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			return serve(cfg, logger)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "remote protocol listen address")
	cmd.Flags().StringVar(&metrics, "metrics", "", "serve prometheus metrics on this address")
	cmd.Flags().BoolVar(&readOnly, "readonly", false, "reject writes to every store")
	return cmd
}

// openStores opens every store directory directly under dataDir, keyed by
// directory name. Directories without a store config are skipped.
func openStores(dataDir string, readOnly bool, logger *slog.Logger) (map[string]store.Store, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	stores := make(map[string]store.Store)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dataDir, e.Name())
		if _, err := os.Stat(filepath.Join(path, fsstore.ConfigFile)); err != nil {
			continue
		}

		s, err := fsstore.OpenWithLogger(path, logger)
		if err != nil {
			return nil, fmt.Errorf("open store %q: %w", e.Name(), err)
		}

		var st store.Store = s
		if readOnly {
			st = store.NewReadOnly(s)
		}
		stores[e.Name()] = st
		logger.Info("opened store", "name", e.Name(), "depth", s.Depth(), "codec", s.Codec().Name(), "readonly", readOnly)
	}
	return stores, nil
}

func serve(cfg config.Config, logger *slog.Logger) error {
	stores, err := openStores(cfg.DataDir, cfg.ReadOnly, logger)
	if err != nil {
		return err
	}
	if len(stores) == 0 {
		logger.Warn("no stores found", "datadir", cfg.DataDir)
	}

	opts := []remote.Option{remote.WithLogger(logger)}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, remote.WithMetrics(remote.NewMetrics(reg)))

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	srv, err := remote.Listen(cfg.ListenAddr, stores, opts...)
	if err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", "signal", sig.String())

	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.Error("metrics shutdown failed", "error", err)
		}
	}
	return srv.Stop()
}
