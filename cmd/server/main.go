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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/roomcoord/internal/adapters/http"
	"github.com/dkeye/roomcoord/internal/adapters/auth"
	wsignal "github.com/dkeye/roomcoord/internal/adapters/signal"
	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/config"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/metrics"
	"github.com/dkeye/roomcoord/internal/store/memory"
	"github.com/dkeye/roomcoord/internal/store/mongostore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.close()

	presence := app.NewPresenceRegistry()
	screens := app.NewScreenArbitrator(st.rooms)
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Presence: presence,
		Screens:  screens,
		Rooms:    st.rooms,
		Messages: st.messages,
	}
	metrics.RegisterStateGauges(prometheus.DefaultRegisterer, presence.RoomCount, screens.ActiveCount)

	ctl := &wsignal.SignalWSController{
		Orch:       o,
		Gate:       &auth.Gate{Verifier: auth.NewVerifier(cfg.JWTSecret), Users: st.users},
		Policy:     app.SimplePolicy{},
		Limiter:    wsignal.NewRoomRateLimiter(cfg.RateLimit.Joins, cfg.RateLimit.Interval),
		SendBuffer: cfg.SendBuffer,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
	}
	reaper := &orch.Reaper{
		Orch:     o,
		Emitter:  ctl,
		Interval: cfg.Reaper.Interval,
		Grace:    cfg.Reaper.Grace,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router.SetupRouter(ctx, cfg, ctl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("room coordination server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return reaper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		// disconnect cleanups must finish before the deferred store close
		if err := ctl.Drain(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("connections not drained")
		}
		return nil
	})

	err = g.Wait()
	log.Info().Msg("Server exited gracefully")
	return err
}

type stores struct {
	rooms    core.RoomRepository
	users    core.UserRepository
	messages core.MessageRepository
	close    func()
}

func openStore(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store {
	case config.StoreMongo:
		st, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(ctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}
		return &stores{rooms: st.Rooms(), users: st.Users(), messages: st.Messages(), close: closeFn}, nil
	default:
		log.Warn().Str("module", "main").Msg("using in-memory store")
		return &stores{
			rooms:    memory.NewRooms(),
			users:    memory.NewUsers(),
			messages: memory.NewMessages(),
			close:    func() {},
		}, nil
	}
}
