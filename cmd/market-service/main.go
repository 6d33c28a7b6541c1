package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"nft-market-service/internal/adapters/broadcaster"
	"nft-market-service/internal/adapters/db"
	"nft-market-service/internal/adapters/payments"
	"nft-market-service/internal/adapters/redis"
	"nft-market-service/internal/adapters/rest"
	"nft-market-service/internal/adapters/scheduler"
	"nft-market-service/internal/adapters/ws"
	"nft-market-service/internal/app"
	"nft-market-service/internal/config"
	"nft-market-service/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting NFT market service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	log.Info().Msg("Database connection established")

	// Create repositories
	repoFactory := db.NewRepositoryFactory(dbConn)
	listingRepo := repoFactory.GetListingRepository()
	bidRepo := repoFactory.GetBidRepository()
	orderRepo := repoFactory.GetOrderRepository()
	profileRepo := repoFactory.GetProfileRepository()
	chatRepo := repoFactory.GetChatRepository()
	paymentRepo := repoFactory.GetPaymentRepository()
	tradeExecutor := repoFactory.GetTradeExecutor()

	log.Info().Msg("Database repositories initialized")

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	// Create Redis broadcaster
	redisBroadcaster := broadcaster.NewBroadcaster(broadcaster.RedisBroadcasterParams{
		RedisClient: redisClient,
		Logger:      log.Logger,
	})
	log.Info().Msg("Redis broadcaster initialized")

	// Payment processor client; nil when unconfigured, top-ups answer 503
	var paymentProvider outbound.PaymentProvider
	if client := payments.NewClient(payments.ClientParams{Config: cfg, Logger: log.Logger}); client != nil {
		paymentProvider = client
		log.Info().Msg("Payment processor client initialized")
	} else {
		log.Warn().Msg("No payment processor configured, wallet top-ups disabled")
	}

	// Create business services
	settlementService := app.NewSettlementService(app.SettlementServiceParams{
		ListingRepo: listingRepo,
		BidRepo:     bidRepo,
		Executor:    tradeExecutor,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})

	settlementScheduler := scheduler.NewSettlementScheduler(scheduler.SettlementSchedulerParams{
		RedisClient: redisClient,
		Settlement:  settlementService,
		Broadcaster: redisBroadcaster,
		MaxWorkers:  config.WSMaxWorkers,
		Logger:      log.Logger,
	})

	listingService := app.NewListingService(app.ListingServiceParams{
		ListingRepo: listingRepo,
		ProfileRepo: profileRepo,
		Executor:    tradeExecutor,
		Broadcaster: redisBroadcaster,
		Scheduler:   settlementScheduler,
		Logger:      log.Logger,
	})
	bidService := app.NewBidService(app.BidServiceParams{
		BidRepo:     bidRepo,
		ListingRepo: listingRepo,
		ProfileRepo: profileRepo,
		Executor:    tradeExecutor,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})
	verificationService := app.NewVerificationService(app.VerificationServiceParams{
		OrderRepo:     orderRepo,
		Executor:      tradeExecutor,
		MaxPayloadAge: cfg.Verification.MaxPayloadAge,
		Logger:        log.Logger,
	})
	walletService := app.NewWalletService(app.WalletServiceParams{
		ProfileRepo: profileRepo,
		PaymentRepo: paymentRepo,
		Provider:    paymentProvider,
		Executor:    tradeExecutor,
		Rate:        cfg.Payment.Rate,
		Logger:      log.Logger,
	})
	orderService := app.NewOrderService(app.OrderServiceParams{
		OrderRepo: orderRepo,
		Logger:    log.Logger,
	})
	chatService := app.NewChatService(app.ChatServiceParams{
		ChatRepo:    chatRepo,
		ListingRepo: listingRepo,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})

	log.Info().Msg("Business services initialized")

	// Start settlement scheduler
	settlementScheduler.Start()
	log.Info().Msg("Settlement scheduler started")

	wsServer := ws.NewServer(ws.ServerParams{
		Config:      cfg,
		Broadcaster: redisBroadcaster,
		Logger:      log.Logger,
	})

	restServer := rest.NewServer(rest.ServerParams{
		Config:       cfg,
		Listings:     listingService,
		Bids:         bidService,
		Settlement:   settlementService,
		Verification: verificationService,
		Wallet:       walletService,
		Orders:       orderService,
		Chat:         chatService,
		Logger:       log.Logger,
	})

	// Start WebSocket server
	go func() {
		if err := wsServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start WebSocket server")
			cancel()
		}
	}()

	// Start REST server
	go func() {
		if err := restServer.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to start REST server")
			cancel()
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	settlementScheduler.Stop()
	log.Info().Msg("Settlement scheduler stopped")

	if err := restServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping REST server")
	}

	if err := wsServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping WebSocket server")
	}

	if err := redisBroadcaster.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis broadcaster")
	}

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
