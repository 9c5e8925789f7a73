package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/shipyard/internal/agentrun"
	"github.com/haasonsaas/shipyard/internal/auth"
	"github.com/haasonsaas/shipyard/internal/chat"
	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/conversations"
	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/server"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools"
)

const sessionExpiry = 24 * time.Hour

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Shipyard server",
		Long: `Start the Shipyard server with the full tool catalog.

The server will:
1. Load configuration from the specified file and the environment
2. Open the conversation/execution store
3. Register every tool domain into the registry
4. Start the schedule runner (in-process, or remote when IS_CLOUD is set)
5. Serve the chat and agent SSE endpoints plus the approval RPCs

Graceful shutdown is handled on SIGINT/SIGTERM signals.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func runServe(ctx context.Context, configPath string, debug bool) error {
	setupLogging(debug)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	entities := domain.NewMemoryStore()
	svc := &domain.Services{
		Orgs:        entities,
		Projects:    entities,
		Apps:        entities,
		Databases:   entities,
		Backups:     entities,
		Mounts:      entities,
		Credentials: entities,
		Schedules:   entities,
		Servers:     entities,
		Deployments: entities,

		SQLExecutor:  domain.NewPQExecutor(),
		Destinations: domain.NewS3Verifier(),
		KeyGenerator: domain.NewEd25519KeyGenerator(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, stopSched, err := buildScheduler(ctx, cfg, svc)
	if err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer stopSched()

	registry := tool.NewRegistry()
	tools.RegisterAll(registry, svc, sched, cfg.Stripe)
	slog.Info("tool catalog registered", "tools", len(registry.All()))

	sessions := auth.NewService(cfg.AuthSecret, sessionExpiry)
	chatSvc := chat.NewService(store, registry, nil)
	runner := agentrun.NewRunner(store, registry, nil, cfg.RunTimeout)

	srv := server.New(cfg, sessions, registry, chatSvc, runner, store)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// openStore selects the persistence backend from the config.
func openStore(cfg *config.Config) (conversations.Store, error) {
	switch cfg.Database.Driver {
	case "", "memory":
		return conversations.NewMemoryStore(), nil
	case "sqlite":
		return conversations.NewSQLiteStore(cfg.Database.Path)
	case "postgres":
		return conversations.NewPostgresStore(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// buildScheduler picks the in-process runner or the hosted jobs service.
func buildScheduler(ctx context.Context, cfg *config.Config, svc *domain.Services) (scheduler.Scheduler, func(), error) {
	if cfg.IsCloud {
		if cfg.JobsURL == "" {
			return nil, nil, fmt.Errorf("IS_CLOUD requires JOBS_URL")
		}
		return scheduler.NewRemote(cfg.JobsURL, cfg.JobsAPIKey), func() {}, nil
	}

	local := scheduler.NewLocal(scheduleJob(svc))
	if err := local.Start(ctx); err != nil {
		return nil, nil, err
	}
	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := local.Stop(stopCtx); err != nil {
			slog.Warn("scheduler stop", "error", err)
		}
	}
	return local, stop, nil
}

// scheduleJob runs a due schedule by triggering a deploy of its service.
func scheduleJob(svc *domain.Services) scheduler.JobFunc {
	return func(ctx context.Context, s *domain.Schedule) error {
		slog.Info("schedule due", "scheduleId", s.ScheduleID, "service", s.ServiceID)
		if svc.Deployer == nil {
			return nil
		}
		return svc.Deployer.Deploy(ctx, s.ServiceType, s.ServiceID)
	}
}
