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

	"github.com/warp/workforce-engine/api"
	"github.com/warp/workforce-engine/assign"
	"github.com/warp/workforce-engine/config"
	"github.com/warp/workforce-engine/logger"
	"github.com/warp/workforce-engine/metrics"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the planning API server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	newLog := func(component string) logger.Logger {
		return logger.New(component, cfg.Logging.Level, cfg.Logging.Pretty)
	}
	log := newLog("serve")

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var sink metrics.Sink = metrics.NopSink{}
	if cfg.Metrics.Enabled {
		prom, err := metrics.NewPromSink(nil)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		sink = prom
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.Addr, newLog("metrics")); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	// The sqlite store doubles as the notification outbox. The memory
	// driver is for development, where notifications go to the console.
	var notifier assign.Notifier = st
	if cfg.Store.Driver == "memory" {
		notifier = assign.LogNotifier{Log: newLog("notify")}
	}

	facade := assign.NewFacade(st, notifier)
	facade.MessageTTL = cfg.Assign.TTL()
	facade.Log = newLog("assign")
	facade.Sink = sink

	h := api.NewHandler(st, facade)
	h.Log = newLog("api")
	h.Sink = sink

	refresher := api.NewRefresher(h, cfg.Refresh.Interval())
	refresher.Log = newLog("refresher")
	refresher.Start()
	defer refresher.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(h, cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("api listening on %s (store %s)", cfg.Server.Addr, cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
