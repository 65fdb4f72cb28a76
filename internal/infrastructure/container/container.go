package container

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/tomether-ux/polygonum-sub000/internal/config"
	"github.com/tomether-ux/polygonum-sub000/internal/delivery/http"
	"github.com/tomether-ux/polygonum-sub000/internal/delivery/http/handler"
	"github.com/tomether-ux/polygonum-sub000/internal/delivery/http/middleware"
	"github.com/tomether-ux/polygonum-sub000/internal/infrastructure/database"
	"github.com/tomether-ux/polygonum-sub000/internal/infrastructure/server"
	"github.com/tomether-ux/polygonum-sub000/internal/lexicon"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
	"github.com/tomether-ux/polygonum-sub000/internal/repository/postgres"
	"github.com/tomether-ux/polygonum-sub000/internal/scheduler"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/cycles"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/recompute"
)

// Container holds all application dependencies
type Container struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sqlx.DB
	Redis     *redis.Client
	Server    *server.Server
	Recompute *recompute.UseCase
	Scheduler *scheduler.Scheduler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	// Initialize database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis is optional: without it the synonym cache stays in-process
	// and the recompute lock is per-instance only.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = database.NewRedisClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	// Synonym lexicon; a load failure degrades matching, it does not
	// stop the service.
	var resolver *matching.SynonymResolver
	if cfg.Lexicon.Enabled && cfg.Lexicon.Path != "" {
		lex, err := lexicon.Load(cfg.Lexicon.Path)
		if err != nil {
			logger.Warn("failed to load lexicon, synonym tier disabled",
				"path", cfg.Lexicon.Path, "error", err)
		} else {
			resolver = matching.NewSynonymResolver(lex, cfg.Lexicon.Language, cfg.Lexicon.CacheSize, redisClient, logger)
		}
	}
	matcher := matching.NewMatcher(resolver)

	// Initialize repositories
	listingRepo := postgres.NewListingRepository(db)
	cycleRepo := postgres.NewCycleRepository(db)
	proposalRepo := postgres.NewProposalRepository(db)
	runRepo := postgres.NewRunRepository(db)

	// Initialize use cases
	var locker recompute.Locker
	if redisClient != nil {
		locker = recompute.NewRedisLocker(redisClient)
	} else {
		locker = recompute.NewLocalLocker()
	}
	recomputeUseCase := recompute.NewUseCase(
		listingRepo,
		cycleRepo,
		runRepo,
		matcher,
		locker,
		cfg.Engine,
		logger,
	)
	cyclesUseCase := cycles.NewCyclesUseCase(cycleRepo, proposalRepo)

	// Initialize handlers
	cycleHandler := handler.NewCycleHandler(cyclesUseCase)
	recomputeHandler := handler.NewRecomputeHandler(recomputeUseCase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.ServiceSecret)

	// Initialize router
	router := http.NewRouter(
		cycleHandler,
		recomputeHandler,
		authMiddleware,
	)

	// Setup routes
	ginRouter := router.Setup()

	// Initialize server
	srv := server.NewServer(&cfg.Server, ginRouter, logger)

	// Initialize scheduler
	sched := scheduler.New(recomputeUseCase, cfg.Engine.Interval, logger)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Redis:     redisClient,
		Server:    srv,
		Recompute: recomputeUseCase,
		Scheduler: sched,
	}, nil
}

// Close closes all connections
func (c *Container) Close() error {
	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("error closing redis", "error", err)
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
