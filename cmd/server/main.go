package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"sigil/internal/jwttoken"
	"sigil/internal/ledger"
	ownershipstore "sigil/internal/ledger/store/ownership"
	paymentstore "sigil/internal/ledger/store/payment"
	"sigil/internal/platform/config"
	"sigil/internal/platform/httpserver"
	"sigil/internal/platform/logger"
	platformredis "sigil/internal/platform/redis"
	tokenevents "sigil/internal/token/events"
	tokenhandler "sigil/internal/token/handler"
	tokenmetrics "sigil/internal/token/metrics"
	"sigil/internal/token/models"
	tokenservice "sigil/internal/token/service"
	"sigil/internal/token/store/lockcache"
	statestore "sigil/internal/token/store/state"
	httptransport "sigil/internal/transport/http"
)

const jwtIssuer = "sigil"

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	checks := map[string]httptransport.HealthChecker{}

	var (
		ownership ledger.OwnershipStore
		payments  ledger.PaymentLedger
		state     tokenservice.StateStore
		opts      []tokenservice.Option
	)

	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		for _, schema := range []string{ownershipstore.Schema, paymentstore.Schema, statestore.Schema} {
			if _, err := db.ExecContext(ctx, schema); err != nil {
				return err
			}
		}
		ownership = ownershipstore.NewPostgres(db)
		payments = paymentstore.NewPostgres(db)
		state = statestore.NewPostgres(db)
		opts = append(opts, tokenservice.WithTx(newTokenPostgresTx(db)))
		checks["postgres"] = dbHealth{db}
		log.Info("using postgres stores")
	} else {
		ownership = ownershipstore.NewInMemory()
		payments = paymentstore.NewInMemory()
		state = statestore.NewInMemory()
		log.Info("using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		opts = append(opts, tokenservice.WithLockCache(
			lockcache.New(redisClient.Client, cfg.Redis.LockCacheTTL)))
		checks["redis"] = redisClient
		log.Info("lock cache enabled")
	}

	var publisher tokenservice.EventPublisher = tokenevents.NewLog(log)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := tokenevents.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("kafka publisher enabled", "topic", cfg.Kafka.Topic)
	}

	svc := tokenservice.New(ownership, payments, state, append(opts,
		tokenservice.WithLogger(log),
		tokenservice.WithMetrics(tokenmetrics.New()),
		tokenservice.WithPublisher(publisher),
	)...)

	seed := models.MintConfig{
		MaxSupply:     cfg.MaxSupply,
		MinMintAmount: cfg.MinMintAmount,
		PaymentAsset:  cfg.PaymentAsset,
		Admin:         cfg.AdminAddress,
	}
	if err := svc.SeedConfig(ctx, seed); err != nil {
		return err
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, jwtIssuer)
	router := httptransport.NewRouter(httptransport.Router{
		Logger:   log,
		Handlers: []httptransport.Registrar{tokenhandler.New(svc, tokens, log)},
		Checks:   checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// dbHealth adapts *sql.DB to the health check interface.
type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}
