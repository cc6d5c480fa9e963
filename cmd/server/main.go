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

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/moodplay-backend/internal/config"
	"github.com/DoyleJ11/moodplay-backend/internal/httpapi"
	"github.com/DoyleJ11/moodplay-backend/internal/hub"
	"github.com/DoyleJ11/moodplay-backend/internal/interactions"
	"github.com/DoyleJ11/moodplay-backend/internal/kv"
	"github.com/DoyleJ11/moodplay-backend/internal/logging"
	"github.com/DoyleJ11/moodplay-backend/internal/metrics"
	"github.com/DoyleJ11/moodplay-backend/internal/session"
	"github.com/DoyleJ11/moodplay-backend/internal/suggest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store, err := kv.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { err = multierr.Append(err, store.Close()) }()

	log := interactions.New(store, logger.Named("interactions"))
	log.OnPersistError = func(op string, _ error) { m.PersistFailed(op) }
	log.Load(ctx)

	client := suggest.NewClient(cfg.Suggest, logger.Named("suggest"), m.SuggestionDone)
	if !client.Enabled() {
		logger.Info("suggestion service disabled")
	}

	h := hub.NewHub(ctx, hub.Options{
		Logger: logger.Named("hub"),
		OnFinish: func(code string, kind session.Kind, out session.Outcome) {
			m.GameFinished(string(kind), out.Winner)
		},
		OnCount: m.SetActiveSessions,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(&httpapi.Deps{
		Hub:          h,
		Interactions: log,
		Suggester:    client,
		Timings:      cfg.Games,
		Metrics:      m,
		Logger:       logger.Named("http"),
		CORSOrigins:  cfg.CORSOrigins,
		RateLimit:    cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", string(cfg.Store.Backend)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
