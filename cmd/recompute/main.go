// Command recompute runs one cycle-discovery pass and exits. Intended
// for cron or manual operation; the server binary runs the same usecase
// on its internal schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomether-ux/polygonum-sub000/internal/config"
	"github.com/tomether-ux/polygonum-sub000/internal/infrastructure/database"
	"github.com/tomether-ux/polygonum-sub000/internal/lexicon"
	"github.com/tomether-ux/polygonum-sub000/internal/logging"
	"github.com/tomether-ux/polygonum-sub000/internal/matching"
	"github.com/tomether-ux/polygonum-sub000/internal/repository"
	"github.com/tomether-ux/polygonum-sub000/internal/repository/memory"
	"github.com/tomether-ux/polygonum-sub000/internal/repository/postgres"
	"github.com/tomether-ux/polygonum-sub000/internal/usecase/recompute"
)

func main() {
	maxLength := flag.Int("max-length", 0, "override maximum cycle length")
	forceFull := flag.Bool("force-full", false, "force a full recompute")
	batchSize := flag.Int("batch-size", 0, "override upsert batch size")
	dryRun := flag.Bool("dry-run", false, "compute against real listings but discard all writes")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var resolver *matching.SynonymResolver
	if cfg.Lexicon.Enabled && cfg.Lexicon.Path != "" {
		lex, err := lexicon.Load(cfg.Lexicon.Path)
		if err != nil {
			logger.Warn("failed to load lexicon, synonym tier disabled",
				"path", cfg.Lexicon.Path, "error", err)
		} else {
			// no redis here: a one-shot run gains nothing from a shared cache
			resolver = matching.NewSynonymResolver(lex, cfg.Lexicon.Language, cfg.Lexicon.CacheSize, nil, logger)
		}
	}
	matcher := matching.NewMatcher(resolver)

	listingRepo := postgres.NewListingRepository(db)

	var (
		cycleRepo repository.CycleRepository
		runRepo   repository.RunRepository
		locker    recompute.Locker
	)
	if *dryRun {
		// all writes land in memory and evaporate on exit
		cycleRepo = memory.NewCycleRepository(memory.NewProposalRepository())
		runRepo = memory.NewRunRepository()
		locker = recompute.NewLocalLocker()
		logger.Info("dry run, results will not be persisted")
	} else {
		cycleRepo = postgres.NewCycleRepository(db)
		runRepo = postgres.NewRunRepository(db)
		if cfg.Redis.Enabled {
			redisClient, err := database.NewRedisClient(&cfg.Redis)
			if err != nil {
				logger.Error("failed to initialize redis", "error", err)
				os.Exit(1)
			}
			defer redisClient.Close()
			locker = recompute.NewRedisLocker(redisClient)
		} else {
			locker = recompute.NewLocalLocker()
		}
	}

	uc := recompute.NewUseCase(listingRepo, cycleRepo, runRepo, matcher, locker, cfg.Engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := uc.Run(ctx, recompute.Options{
		MaxLength: *maxLength,
		ForceFull: *forceFull,
		BatchSize: *batchSize,
	})
	if err != nil {
		logger.Error("recompute failed", "error", err)
		os.Exit(1)
	}

	logger.Info("recompute completed",
		"run_id", summary.RunID,
		"mode", string(summary.Mode),
		"cycles_found", summary.CyclesFound,
		"created", summary.Created,
		"updated", summary.Updated,
		"marked_stale", summary.MarkedStale,
		"purged", summary.Purged,
		"truncated", summary.Truncated,
		"elapsed", summary.Elapsed)
}
