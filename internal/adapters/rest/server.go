package rest

import (
	"context"
	"fmt"

	"nft-market-service/internal/config"
	"nft-market-service/internal/ports/inbound"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"
)

// Server hosts the REST API
type Server struct {
	app    *fiber.App
	config *config.Config
	logger zerolog.Logger
}

type ServerParams struct {
	Config       *config.Config
	Listings     inbound.ListingService
	Bids         inbound.BidService
	Settlement   inbound.SettlementService
	Verification inbound.VerificationService
	Wallet       inbound.WalletService
	Orders       inbound.OrderService
	Chat         inbound.ChatService
	Logger       zerolog.Logger
}

func NewServer(params ServerParams) *Server {
	logger := params.Logger.With().Str("component", "rest_server").Logger()

	app := fiber.New(fiber.Config{
		AppName: "nft-market-service",
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	listingHandler := NewListingHandler(ListingHandlerParams{Listings: params.Listings, Logger: params.Logger})
	bidHandler := NewBidHandler(BidHandlerParams{Bids: params.Bids, Logger: params.Logger})
	settlementHandler := NewSettlementHandler(SettlementHandlerParams{
		Settlement: params.Settlement,
		CronSecret: params.Config.Auth.CronSecret,
		Logger:     params.Logger,
	})
	verificationHandler := NewVerificationHandler(VerificationHandlerParams{Verification: params.Verification, Logger: params.Logger})
	walletHandler := NewWalletHandler(WalletHandlerParams{Wallet: params.Wallet, Logger: params.Logger})
	orderHandler := NewOrderHandler(OrderHandlerParams{Orders: params.Orders, Logger: params.Logger})
	chatHandler := NewChatHandler(ChatHandlerParams{Chat: params.Chat, Logger: params.Logger})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "nft-market-service"})
	})

	// Public routes are registered before the auth middleware mounts on /api
	app.Get("/api/nfts", listingHandler.List)
	app.Get("/api/nfts/:id", listingHandler.Get)
	app.Get("/api/bids", bidHandler.ListActive)
	app.Post("/api/qr/verify", verificationHandler.Verify)
	app.Get("/api/verify", verificationHandler.VerifyByCode)
	// Sweep endpoint carries its own shared-secret check
	app.Post("/api/auctions/process-expired", settlementHandler.ProcessExpired)

	jwtService := NewJWTService(params.Config.Auth.JWTSecret)
	protected := app.Group("/api")
	protected.Use(AuthMiddleware(jwtService))

	protected.Post("/nfts", listingHandler.Create)
	protected.Put("/nfts/:id", listingHandler.Update)
	protected.Delete("/nfts/:id", listingHandler.Cancel)
	protected.Post("/nfts/purchase", listingHandler.Purchase)

	protected.Post("/bids", bidHandler.Place)
	protected.Post("/bids/:id/withdraw", bidHandler.Withdraw)
	protected.Post("/bids/:id/accept", bidHandler.Accept)

	protected.Post("/qr/generate", verificationHandler.Generate)
	protected.Post("/qr/complete", verificationHandler.Complete)

	protected.Get("/wallet", walletHandler.Balance)
	protected.Post("/payments/create-intent", walletHandler.CreateIntent)
	protected.Post("/payments/confirm", walletHandler.Confirm)

	protected.Get("/orders", orderHandler.List)
	protected.Get("/orders/:id", orderHandler.Get)

	protected.Post("/chat/conversations", chatHandler.StartConversation)
	protected.Get("/chat/conversations", chatHandler.ListConversations)
	protected.Post("/chat/messages", chatHandler.SendMessage)
	protected.Get("/chat/messages", chatHandler.ListMessages)

	return &Server{
		app:    app,
		config: params.Config,
		logger: logger,
	}
}

// App exposes the underlying fiber app, used by handler tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the REST server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.config.Server.Port)
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting REST server")

	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("failed to start REST server: %w", err)
	}
	return nil
}

// Stop gracefully stops the REST server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping REST server...")

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shutdown REST server: %w", err)
	}

	s.logger.Info().Msg("REST server stopped")
	return nil
}
