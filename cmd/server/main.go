package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1ucian0/client-superstaq/internal/clients/superstaq"
	"github.com/1ucian0/client-superstaq/internal/clients/yahoo"
	"github.com/1ucian0/client-superstaq/internal/config"
	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/1ucian0/client-superstaq/internal/modules/cleanup"
	"github.com/1ucian0/client-superstaq/internal/modules/jobs"
	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
	"github.com/1ucian0/client-superstaq/internal/modules/optimization"
	"github.com/1ucian0/client-superstaq/internal/reliability"
	"github.com/1ucian0/client-superstaq/internal/scheduler"
	"github.com/1ucian0/client-superstaq/internal/server"
	"github.com/1ucian0/client-superstaq/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting quantum portfolio service")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.LogLevel != "" && cfg.LogLevel != "info" {
		log = logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})
	}
	if !cfg.HasAPIKey() {
		log.Warn().Msg("No Superstaq API key configured; remote submissions will fail (local_simulator still works)")
	}

	// history.db - local daily price history
	historyDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/history.db",
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize history database")
	}
	defer historyDB.Close()

	// jobs.db - quantum jobs and optimization runs
	jobsDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/jobs.db",
		Profile: database.ProfileStandard,
		Name:    "jobs",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize jobs database")
	}
	defer jobsDB.Close()

	for _, db := range []*database.DB{historyDB, jobsDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("database", db.Name()).Msg("Migration failed")
		}
	}

	// Clients
	yahooClient := yahoo.NewClient(log)
	superstaqClient := superstaq.NewClient(cfg.SuperstaqRemoteHost, cfg.SuperstaqAPIVersion, cfg.SuperstaqAPIKey, log)

	// Services
	priceRepo := marketdata.NewRepository(historyDB.Conn(), log)
	marketDataService := marketdata.NewService(priceRepo, yahooClient, log)

	optimizerService := optimization.NewSharpeService(
		optimization.NewReturnsCalculator(priceRepo, log),
		optimization.NewRiskModelBuilder(priceRepo, log),
		optimization.NewRunRepository(jobsDB.Conn(), log),
		cfg.RiskFreeRate,
		log,
	)

	jobsService := jobs.NewService(
		superstaqClient,
		jobs.NewRepository(jobsDB.Conn(), log),
		cfg.DefaultTarget,
		cfg.DefaultShots,
		log,
	)

	// Scheduler and background jobs
	sched := scheduler.New(log)

	priceSync := scheduler.NewPriceSyncJob(marketDataService, "1mo", log)
	if err := sched.AddJob("0 0 * * * *", priceSync); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price sync job")
	}

	jobRefresh := scheduler.NewJobRefreshJob(jobsService, 2*time.Minute, log)
	if err := sched.AddJob("0 */1 * * * *", jobRefresh); err != nil {
		log.Fatal().Err(err).Msg("Failed to register job refresh job")
	}

	// Nightly housekeeping: prune aged rows at 03:10, back up both
	// databases at 03:30.
	retention := cleanup.NewRetentionJob(historyDB, jobsDB, log)
	if err := sched.AddJob("0 10 3 * * *", retention); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retention job")
	}

	backupService := reliability.NewBackupService(
		map[string]*database.DB{"history": historyDB, "jobs": jobsDB},
		cfg.DataDir+"/backups",
		14,
		log,
	)
	if err := sched.AddJob("0 30 3 * * *", reliability.NewBackupJob(backupService)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register backup job")
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:               log,
		Config:            cfg,
		HistoryDB:         historyDB,
		JobsDB:            jobsDB,
		Scheduler:         sched,
		MarketDataService: marketDataService,
		OptimizerService:  optimizerService,
		JobsService:       jobsService,
		BalanceFetcher:    jobsService,
	})
	srv.SetJobs(priceSync, jobRefresh)

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
