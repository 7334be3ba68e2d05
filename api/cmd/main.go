package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/EABruton/waitlist/internal/application/waitlist"
	"github.com/EABruton/waitlist/internal/config"
	"github.com/EABruton/waitlist/internal/infrastructure/jobs"
	"github.com/EABruton/waitlist/internal/infrastructure/postgres"
	redisbus "github.com/EABruton/waitlist/internal/infrastructure/redis"
	"github.com/EABruton/waitlist/internal/logger"
	"github.com/EABruton/waitlist/internal/transport/rest"
)

// sysClock is the one source of wall-clock time outside the store.
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DBDSN)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	{
		ctx, cancel := context.WithTimeout(rootCtx, 3*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("db ping failed")
		}
	}

	bus, err := redisbus.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		zlog.Fatal().Err(err).Msg("redis connect failed")
	}
	defer bus.Close()

	// 1) Infrastructure
	repo := postgres.New(db, cfg.MaxSeats, cfg.CheckinExpiry, cfg.ServiceTimePerSeat)
	jobStore := jobs.NewStore(db)

	{
		ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("parties schema bootstrap failed")
		}
		if err := jobStore.EnsureSchema(ctx); err != nil {
			zlog.Fatal().Err(err).Msg("jobs schema bootstrap failed")
		}
	}

	// 2) Application
	svc := waitlist.New(repo, jobStore, bus, sysClock{}, cfg.MaxSeats, cfg.MaxPartyNameLength)

	// 3) Workers: one per queue; each catches up synchronously before
	// its poll loop starts
	for _, w := range []*jobs.Worker{
		jobs.NewWorker(jobStore, waitlist.QueueDequeue, svc.RunDequeue, cfg.JobPollInterval),
		jobs.NewWorker(jobStore, waitlist.QueueCheckinExpired, svc.RunCheckinExpiry, cfg.JobPollInterval),
		jobs.NewWorker(jobStore, waitlist.QueueSeatExpired, svc.RunSeatExpiry, cfg.JobPollInterval),
	} {
		w.Start(rootCtx)
	}

	// 4) Transport
	sessions := rest.NewSessions(cfg.SessionKey, cfg.CookieMaxAge, cfg.AppEnv == "production", sysClock{})
	h := rest.NewHandler(svc, sessions, bus)
	health := rest.Health(
		rest.HealthCheck{Name: "postgres", Check: db.PingContext},
		rest.HealthCheck{Name: "redis", Check: bus.Ping},
	)

	router := rest.NewRouter(rest.RouterDeps{
		Handler:          h,
		Sessions:         sessions,
		Health:           health,
		RateLimitEnabled: cfg.RLEnabled,
		RateLimitMax:     cfg.RLLimit,
		RateLimitWindow:  cfg.RLWindow,
	})

	// 5) Server. BaseContext ties every request, the event streams
	// included, to rootCtx so shutdown can drain them.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return rootCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Int("port", cfg.Port).Str("env", cfg.AppEnv).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		zlog.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown incomplete")
	}
	zlog.Info().Msg("stopped")
}
