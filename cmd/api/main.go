package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/fortunewheel/internal/api"
	"github.com/fastprodman/fortunewheel/internal/feed"
	"github.com/fastprodman/fortunewheel/internal/infra/logging"
	"github.com/fastprodman/fortunewheel/internal/infra/pgutils"
	jackpotrepo "github.com/fastprodman/fortunewheel/internal/repos/jackpot/postgres"
	"github.com/fastprodman/fortunewheel/internal/repos/rolls"
	rollsrepo "github.com/fastprodman/fortunewheel/internal/repos/rolls/postgres"
	"github.com/fastprodman/fortunewheel/internal/repos/rolls/rediscache"
	usersrepo "github.com/fastprodman/fortunewheel/internal/repos/users/postgres"
	"github.com/fastprodman/fortunewheel/internal/services/spin"
	"github.com/fastprodman/fortunewheel/pkg/envconf"
	"github.com/fastprodman/fortunewheel/pkg/shutdownqueue"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v\n", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// a missing .env is fine, real env vars win anyway
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel, "api")

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	var rollLog rolls.Rolls = rollsrepo.New(db)

	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		shutdownqueue.Add("redis", func(context.Context) error {
			return rdb.Close()
		})

		// an unreachable cache only costs latency, so don't refuse to start
		perr := rdb.Ping(ctx).Err()
		if perr != nil {
			slog.Warn("redis unreachable, recent rolls served from postgres until it recovers", "error", perr)
		}

		rollLog = rediscache.New(rollLog, rdb, cfg.Redis.CacheTTL)
		slog.Info("recent rolls cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	// --- Service ---
	var svc *spin.Service

	// subscribers only connect once the server is up, after svc is set
	hub := feed.NewHub(func() int64 { return svc.GetJackpot() })

	svc = spin.New(
		usersrepo.New(db),
		rollLog,
		jackpotrepo.New(db),
		spin.WithOpTimeout(cfg.Spin.OpTimeout),
		spin.WithNotifier(hub),
	)

	err = svc.LoadJackpot(ctx)
	if err != nil {
		return fmt.Errorf("init jackpot: %w", err)
	}

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(svc, hub.ServeWS))

	// Registered last so it runs first: stop accepting spins before closing
	// the feed and the stores.
	shutdownqueue.Add("websocket feed", func(context.Context) error {
		return hub.Close()
	})
	shutdownqueue.Add("http server", func(c context.Context) error {
		return srv.Shutdown(c)
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		errCh <- api.Serve(srv, cfg.TLS)
	}()

	slog.Info("API started", "addr", srv.Addr, "tls", cfg.TLS.Enabled(), "jackpot", svc.GetJackpot())

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
