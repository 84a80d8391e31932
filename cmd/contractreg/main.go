package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/contractreg/contractreg/internal/audit"
	"github.com/contractreg/contractreg/internal/clock"
	"github.com/contractreg/contractreg/internal/config"
	"github.com/contractreg/contractreg/internal/domain"
	"github.com/contractreg/contractreg/internal/idgen"
	"github.com/contractreg/contractreg/internal/impact"
	"github.com/contractreg/contractreg/internal/notify"
	"github.com/contractreg/contractreg/internal/proposal"
	"github.com/contractreg/contractreg/internal/publish"
	"github.com/contractreg/contractreg/internal/server"
	"github.com/contractreg/contractreg/internal/store"
	"github.com/contractreg/contractreg/internal/store/memory"
	"github.com/contractreg/contractreg/internal/store/postgres"
	"github.com/contractreg/contractreg/internal/store/postgres/migrations"

	"github.com/contractreg/contractreg/internal/apiv1"
)

func main() {
	configPath := flag.String("config", "contractreg.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "server_port", cfg.Server.Port, "database_type", cfg.Database.Type)

	// 2. Initialize Storage
	var db store.Store
	var pgStore *postgres.Store
	switch cfg.Database.Type {
	case "postgres":
		pgStore, err = postgres.NewStore(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer pgStore.Close()

		schemaVersion, err := migrations.RunMigrations(pgStore.DB(), cfg.Database.AutoMigrate)
		if err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database schema ready", "schema_version", schemaVersion)
		db = pgStore
	case "memory":
		db = memory.New()
	default:
		slog.Error("Unsupported database.type", "type", cfg.Database.Type)
		os.Exit(1)
	}

	// 3. Initialize core dependencies
	ids := idgen.NewUUIDGenerator()
	clk := clock.Real{}
	recorder := audit.NewRecorder(ids, clk)

	var notifier notify.Notifier
	if cfg.Notifier.WebhookBaseURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notifier.WebhookBaseURL, cfg.Notifier.Timeout())
	} else {
		notifier = notify.NoopNotifier{}
	}

	analyzer := impact.NewAnalyzer()
	coordinator := publish.NewCoordinator(ids, clk, recorder, notifier)
	lifecycle := proposal.NewLifecycle(ids, clk, recorder)

	// 4. Bootstrap any admin teams declared in config
	if err := bootstrapTeams(context.Background(), db, ids, clk, cfg.Admin.BootstrapTeamSlugs); err != nil {
		slog.Error("Failed to bootstrap admin teams", "error", err)
		os.Exit(1)
	}

	// 5. Initialize HTTP surface
	var healthDB *sql.DB
	if pgStore != nil {
		healthDB = pgStore.DB()
	}
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), healthDB, cfg.Database.Type, cfg.Server.Mode)

	apiSvc := apiv1.NewService(db, ids, clk, recorder, analyzer, coordinator, lifecycle)
	apiSvc.RegisterRoutes(srv.Engine)

	// 6. Start server with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// bootstrapTeams ensures every slug named in admin.bootstrap_team_slugs
// exists, creating it if absent. It runs once at startup, outside any
// request, so it opens and commits its own transaction.
func bootstrapTeams(ctx context.Context, db store.Store, ids idgen.Generator, clk clock.Clock, slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, slug := range slugs {
		if _, err := tx.GetTeamBySlug(ctx, slug); err == nil {
			continue
		}
		team := &domain.Team{
			ID:        ids.NewID(),
			Name:      slug,
			Slug:      slug,
			CreatedAt: clk.Now(),
		}
		if err := tx.CreateTeam(ctx, team); err != nil {
			return err
		}
		slog.Info("Bootstrapped admin team", "slug", slug, "team_id", team.ID)
	}
	return tx.Commit(ctx)
}
