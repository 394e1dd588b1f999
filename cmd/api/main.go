package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/http"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/http/handlers"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/auth"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/autoresponder"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/config"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/escalation"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/events"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/hub"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/identity"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/lifecycle"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/observability"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/persistence"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/repository"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	agentRepo := repository.NewAgentRepository(pool)
	customerRepo := repository.NewCustomerRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	trainingRepo := repository.NewTrainingRepository(pool)

	durable := session.NewRedisDurable(redis.Client, cfg.Auth.SessionTTL())
	sessions := session.NewStore(durable, agentRepo, cfg.Auth.SessionTTL(), logger)
	go sessions.StartSweeper(ctx, cfg.Auth.SweepInterval())

	widgetTokens := auth.NewWidgetTokenManager(cfg.Auth.WidgetJWTSecret, cfg.Auth.WidgetTTLMinutes)
	resolver := identity.NewResolver(customerRepo, conversationRepo, logger)

	var llm autoresponder.LLMClient
	if cfg.Responder.APIKey != "" {
		llm = autoresponder.NewOpenAIClient(cfg.Responder)
	} else {
		logger.Warn("no responder api key set, using echo client")
		llm = autoresponder.NewMockLLM()
	}
	engine := autoresponder.NewEngine(llm, trainingRepo, cfg.Responder, logger)
	if err := engine.ReloadCorpus(ctx); err != nil {
		logger.Warn("initial corpus load failed", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	controller := lifecycle.NewController(lifecycle.Dependencies{
		ConversationRepo: conversationRepo,
		MessageRepo:      messageRepo,
		CustomerRepo:     customerRepo,
		AgentRepo:        agentRepo,
		Responder:        engine,
		Policy: escalation.Policy{
			Enabled:     cfg.Responder.Enabled,
			GraceWindow: cfg.Responder.GraceWindow(),
		},
		Dispatcher:       dispatcher,
		MinResponseDelay: cfg.Responder.MinResponseDelay(),
		Logger:           logger,
	})

	liveHub := hub.New(logger)
	liveHub.BindDispatcher(dispatcher)

	gateway := hub.NewGateway(hub.GatewayDependencies{
		Hub:              liveHub,
		AgentRepo:        agentRepo,
		CustomerRepo:     customerRepo,
		ConversationRepo: conversationRepo,
		Sessions:         sessions,
		Resolver:         resolver,
		Controller:       controller,
		WidgetTokens:     widgetTokens,
		Dispatcher:       dispatcher,
		Config:           cfg.Hub,
		Logger:           logger,
	})

	if err := bootstrapAdmin(ctx, cfg.Auth, agentRepo, logger); err != nil {
		logger.Fatal("bootstrap admin failed", zap.Error(err))
	}

	authMiddleware := auth.NewMiddleware(sessions)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, liveHub),
		Agents:         handlers.NewAgentsHandler(agentRepo, sessions, liveHub, cfg.Auth.BcryptCost),
		Conversations:  handlers.NewConversationsHandler(conversationRepo, messageRepo, customerRepo, controller),
		Training:       handlers.NewTrainingHandler(trainingRepo, engine, logger),
		Gateway:        gateway,
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// bootstrapAdmin seeds the first operator account so a fresh install can
// log in. No-op once any agent exists.
func bootstrapAdmin(ctx context.Context, cfg config.AuthConfig, agents repository.AgentRepository, logger *zap.Logger) error {
	count, err := agents.Count(ctx)
	if err != nil || count > 0 {
		return err
	}
	if cfg.BootstrapEmail == "" || cfg.BootstrapPassword == "" {
		logger.Warn("no agents exist and no bootstrap credentials configured")
		return nil
	}

	hash, err := auth.HashPassword(cfg.BootstrapPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &domain.Agent{
		Name:         cfg.BootstrapName,
		Email:        cfg.BootstrapEmail,
		PasswordHash: hash,
		Role:         domain.AgentRoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := agents.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
