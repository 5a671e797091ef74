package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/riskclock/internal/config"
	"github.com/robalobadob/riskclock/internal/httpserver"
	"github.com/robalobadob/riskclock/internal/network"
	"github.com/robalobadob/riskclock/internal/results"
	"github.com/robalobadob/riskclock/internal/session"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ledger, closeLedger, err := openLedger(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open match ledger")
	}
	defer closeLedger()

	engine := session.NewEngine(cfg.Rules)
	ws := network.NewServer(session.NewGameHandler(engine, ledger), cfg.ClientOrigin)
	engine.Attach(session.HubBroadcaster(ws.Hub()))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go ws.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpserver.New(engine, ledger, ws, cfg.ClientOrigin).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Float64("threshold", cfg.Rules.Threshold).
			Float64("maxClick", cfg.Rules.MaxClick).
			Bool("strictTurns", cfg.Rules.StrictTurns).
			Msg("starting riskclock server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down")

	// Drop WebSocket clients first; Shutdown does not wait for hijacked connections.
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown LOG_LEVEL, keeping default")
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// openLedger picks SQLite when a path is configured, memory otherwise.
func openLedger(path string) (results.Store, func(), error) {
	if path == "" {
		log.Info().Msg("DB_PATH not set, match history is kept in memory")
		return results.NewMemoryStore(), func() {}, nil
	}

	db, err := openDB(path)
	if err != nil {
		return nil, nil, err
	}
	migrations, err := fs.Sub(results.Migrations, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := migrate(db, migrations); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return results.NewSQLStore(db), closer(db), nil
}

func closer(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("close db")
		}
	}
}
