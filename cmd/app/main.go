// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"content-commerce/internal/config"
	"content-commerce/internal/domain/ports/adapter"
	"content-commerce/internal/infra/adapters/sanitize"
	pg "content-commerce/internal/infra/db/postgres"
	httpapi "content-commerce/internal/infra/http"
	"content-commerce/internal/infra/logging"
	"content-commerce/internal/infra/metrics"
	red "content-commerce/internal/infra/redis"
	"content-commerce/internal/infra/sched"
	"content-commerce/internal/infra/web"
	"content-commerce/internal/infra/worker"
	"content-commerce/internal/usecase"
)

// Set with -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop processor allowed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	logger.Info().Str("version", version).Bool("dev", cfg.Runtime.Dev).Msg("starting content-commerce")

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	if cfg.Database.ApplySchema {
		if err := pg.ApplySchema(ctx, pool); err != nil {
			return err
		}
		logger.Info().Msg("database schema applied")
	}

	// ---- Redis (optional) ----
	var (
		redisClient *red.Client
		locker      adapter.Locker
		limiter     adapter.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
		limiter = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis disabled: no verification locks, rate limits or catalog cache")
	}

	// ---- Repositories ----
	users := pg.NewUserRepo(pool)
	subs := pg.NewSubscriptionRepo(pool)
	subPayments := pg.NewSubscriptionPaymentRepo(pool)
	purchases := pg.NewPurchaseRepo(pool)
	donations := pg.NewDonationRepo(pool)
	posts := pg.NewPostRepo(pool)
	ebookRepo := withEbookCache(pg.NewEbookRepo(pool), redisClient, cfg.Redis.TTL, logger)
	tm := pg.NewTxManager(pool)

	// ---- Adapters ----
	processor, webhook, err := newProcessor(cfg, logger)
	if err != nil {
		return err
	}
	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}

	workers := worker.NewPool(cfg.Notify.Workers, logger)
	workers.Start(ctx)
	defer workers.Stop()
	asyncNotifier := worker.NewAsyncNotifier(notifier, workers, "telegram", logger)

	// ---- Use cases ----
	ledger := usecase.NewCreditLedger(subs, logger)
	checkoutUC := usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		Users:       users,
		Subs:        subs,
		SubPayments: subPayments,
		Purchases:   purchases,
		Donations:   donations,
		Ebooks:      ebookRepo,
		Ledger:      ledger,
		TM:          tm,
		Processor:   processor,
		Limiter:     limiter,
		Sanitizer:   sanitize.NewStrictSanitizer(),
		Config: usecase.CheckoutConfig{
			Currency:        cfg.Payment.Currency,
			CallbackURL:     cfg.Payment.CallbackURL,
			DonationMinimum: cfg.Payment.DonationMinimum,
			InitRateLimit:   cfg.Payment.InitRateLimit,
		},
		Log: logger,
	})
	verifyUC := usecase.NewVerificationUseCase(usecase.VerificationDeps{
		Users:       users,
		Subs:        subs,
		SubPayments: subPayments,
		Purchases:   purchases,
		Donations:   donations,
		Ebooks:      ebookRepo,
		Ledger:      ledger,
		TM:          tm,
		Processor:   processor,
		Locker:      locker,
		Notifier:    asyncNotifier,
		Timeout:     cfg.Payment.VerifyTimeout,
		Currency:    cfg.Payment.Currency,
		Log:         logger,
	})
	accessUC := usecase.NewAccessUseCase(ebookRepo, purchases, subs, logger)
	purchaseUC := usecase.NewPurchaseUseCase(purchases, ebookRepo, signer, logger)
	subscriptionUC := usecase.NewSubscriptionUseCase(users, subs, ledger, tm, logger)
	donationUC := usecase.NewDonationUseCase(donations, logger)
	userUC := usecase.NewUserUseCase(users, tm, cfg.Admin.ExtUserIDs, logger)
	adminUC := usecase.NewAdminUseCase(usecase.AdminDeps{
		Users:     users,
		Subs:      subs,
		Purchases: purchases,
		Donations: donations,
		Ebooks:    ebookRepo,
		Posts:     posts,
		Processor: processor,
		Log:       logger,
	})

	// ---- HTTP ----
	health := map[string]web.HealthChecker{
		"postgres": func(r *http.Request) error { return pool.Ping(r.Context()) },
	}
	if redisClient != nil {
		health["redis"] = func(r *http.Request) error { return redisClient.Ping(r.Context()) }
	}
	srv := web.NewServer(web.Deps{
		Users:         userUC,
		Subscriptions: subscriptionUC,
		Checkout:      checkoutUC,
		Verify:        verifyUC,
		Purchases:     purchaseUC,
		Access:        accessUC,
		Donations:     donationUC,
		Admin:         adminUC,
		Auth:          web.NewAuthManager(cfg.Admin.APIKey, cfg.Admin.JWTSecret, !cfg.Runtime.Dev, cfg.Admin.SessionTTL),
		Webhook:       webhook,
		FrontendURL:   cfg.HTTP.FrontendURL,
		Timeout:       cfg.HTTP.RequestTimeout,
		Health:        health,
		Log:           logger,
	})
	httpServer := httpapi.NewServer(cfg.HTTP, srv.Routes(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Run(gctx) })
	g.Go(func() error {
		reportPoolStats(gctx, pool)
		return nil
	})
	if cfg.Scheduler.ReconcileEnabled {
		reconciler := sched.NewPaymentReconciler(verifyUC, cfg.Scheduler.ReconcileInterval, cfg.Scheduler.ReconcileAfter, logger)
		g.Go(func() error {
			if err := reconciler.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	err = g.Wait()
	logger.Info().Msg("shutdown complete")
	return err
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		st := pool.Stat()
		metrics.SetDBPoolStats(metrics.DBPoolStats{
			Total:    st.TotalConns(),
			Idle:     st.IdleConns(),
			Acquired: st.AcquiredConns(),
			Max:      st.MaxConns(),
		})
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
