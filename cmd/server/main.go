package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adilhusain01/campayn/internal/chain"
	"github.com/adilhusain01/campayn/internal/config"
	"github.com/adilhusain01/campayn/internal/db"
	"github.com/adilhusain01/campayn/internal/events"
	"github.com/adilhusain01/campayn/internal/handler"
	"github.com/adilhusain01/campayn/internal/middleware"
	"github.com/adilhusain01/campayn/internal/repository"
	"github.com/adilhusain01/campayn/internal/router"
	"github.com/adilhusain01/campayn/internal/service"
	"github.com/adilhusain01/campayn/internal/youtube"
)

// submissionStore is what the jobs, the leaderboard and the readiness probe
// need from either store driver.
type submissionStore interface {
	service.SubmissionStore
	handler.Pinger
}

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		middleware.InitLogger("info", "campayn-api")
		middleware.Logger.Fatal().Err(err).Msg("invalid configuration")
	}

	middleware.InitLogger(cfg.LogLevel, "campayn-api")
	log := middleware.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store
	var (
		store submissionStore
		pool  *pgxpool.Pool
	)
	switch cfg.StoreDriver {
	case "mongo":
		repo, err := repository.NewMongoSubmissionRepo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		defer repo.Close(context.Background())
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure mongo indexes")
		}
		store = repo
	default:
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := repository.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = repository.NewSubmissionRepo(pool)
	}

	cache := service.NewCacheService(cfg.RedisURL, log)
	defer cache.Close()

	// YouTube client
	quota := youtube.NewQuotaTracker(cfg.DailyQuotaLimit, cfg.QuotaLocation(), nil)
	handler.InitMetrics(prometheus.DefaultRegisterer, pool, quota)
	if cfg.YouTubeAPIKey == "" {
		log.Warn().Msg("YOUTUBE_API_KEY not set, metric refreshes will fail")
	}
	yt := youtube.NewClient(cfg.YouTubeBaseURL, cfg.YouTubeAPIKey, quota,
		youtube.WithHTTPClient(&http.Client{Timeout: cfg.YouTubeTimeout}),
		youtube.WithCosts(youtube.Costs{
			Video:   cfg.QuotaCostVideo,
			Channel: cfg.QuotaCostChannel,
			Search:  cfg.QuotaCostSearch,
		}),
		youtube.WithLogger(log),
		youtube.WithObserver(handler.ObserveYouTube),
	)

	// Domain events
	var publisher events.Publisher = events.NewLogPublisher(log)
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, map[string]string{
			events.EventMetricsRefreshed: cfg.TopicMetricsRefreshed,
			events.EventCampaignSettled:  cfg.TopicCampaignSettled,
			events.EventSettlementFailed: cfg.TopicSettlementFailed,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka publisher")
		}
		defer kp.Close()
		publisher = kp
	}

	recorder := handler.JobRecorder{}
	scorer := service.NewScoreService(nil)
	refresh := service.NewRefreshJob(store, yt, scorer, cfg.StaleAfter, cfg.RefreshConcurrency,
		service.WithCache(cache),
		service.WithPublisher(publisher),
		service.WithRecorder(recorder),
		service.WithLogger(log),
	)

	var wg sync.WaitGroup
	var workers []*service.Worker

	refreshWorker := service.NewWorker("refresh", cfg.RefreshInterval, refresh.Task(), recorder, log)
	workers = append(workers, refreshWorker)

	// Settlement needs the contract; without an address only metrics run.
	var contract *chain.CampaignContract
	if cfg.ContractAddress != "" {
		contract, err = chain.Dial(ctx, chain.Config{
			RPCURL:         cfg.ChainRPCURL,
			ChainID:        cfg.ChainID,
			Address:        cfg.ContractAddress,
			PrivateKey:     cfg.SettlerPrivateKey,
			CallTimeout:    cfg.ChainCallTimeout,
			ReceiptTimeout: cfg.ChainReceiptTimeout,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to bind campaign contract")
		}
		defer contract.Close()
		if cfg.SettlerPrivateKey == "" {
			log.Warn().Msg("SETTLER_PRIVATE_KEY not set, settlement transactions will be rejected")
		}

		settlement := service.NewSettlementJob(contract, store, cache, cfg.SettlementLockTTL,
			service.WithCache(cache),
			service.WithPublisher(publisher),
			service.WithRecorder(recorder),
			service.WithLogger(log),
		)
		workers = append(workers, service.NewWorker("settlement", cfg.SettlementInterval, settlement.Task(), recorder, log))
	} else {
		log.Warn().Msg("CAMPAIGN_CONTRACT_ADDRESS not set, settlement disabled")
	}

	for _, w := range workers {
		wg.Add(1)
		go func(w *service.Worker) {
			defer wg.Done()
			w.Start(ctx)
		}(w)
	}

	if pool != nil {
		listener := service.NewSubmissionListener(pool, refresh, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			listener.Start(ctx)
		}()
	}

	// HTTP surface
	app := fiber.New(fiber.Config{
		AppName:      "campayn API",
		ServerHeader: "campayn",
	})

	var chainProbe handler.BlockReader
	if contract != nil {
		chainProbe = contract
	}

	limiters := router.NewLimiters()
	defer limiters.Stop()

	router.Setup(app, &router.Handlers{
		Health:       handler.NewHealthHandler(store, cfg.StoreDriver, cache.Client(), chainProbe, quota),
		Quota:        handler.NewQuotaHandler(quota),
		Leaderboard:  handler.NewLeaderboardHandler(service.NewLeaderboardService(store, cache, log)),
		Verification: handler.NewVerificationHandler(service.NewVerificationService(yt, log)),
	}, limiters, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		for _, w := range workers {
			w.Stop()
		}
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	log.Info().
		Str("port", cfg.Port).
		Str("env", cfg.Environment).
		Str("store", cfg.StoreDriver).
		Msg("campayn backend starting")

	if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("http server stopped")
		stop()
	}

	wg.Wait()
	log.Info().Msg("shutdown complete")
}
