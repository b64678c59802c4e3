package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"

	"github.com/fablecraft/storyagent/config"
	"github.com/fablecraft/storyagent/core"
	"github.com/fablecraft/storyagent/guard"
	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/model"
	"github.com/fablecraft/storyagent/model/anthropic"
	"github.com/fablecraft/storyagent/model/openai"
	"github.com/fablecraft/storyagent/orchestrator"
	"github.com/fablecraft/storyagent/session"
	"github.com/fablecraft/storyagent/store"
	"github.com/fablecraft/storyagent/suggest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "storyagent",
		Short:        "Conversational story-writing agent service",
		Long:         "storyagent serves the /chat endpoint of the story-writing assistant: intent detection, guided operations on the project database, and suggestion-driven conversation.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfgPath)
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file (YAML)")
	return cmd
}

func run(ctx context.Context, cfgPath string) error {
	// Best effort: a missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewProductionZapLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	m, err := buildModel(cfg)
	if err != nil {
		return err
	}

	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (STORYAGENT_DATABASE_DSN)")
	}
	s, err := store.Open(postgres.Open(cfg.Database.DSN))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	sessions, err := buildSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var catalogue []core.Suggestion
	if cfg.Agent.SuggestionsFile != "" {
		catalogue, err = suggest.Load(cfg.Agent.SuggestionsFile)
		if err != nil {
			return fmt.Errorf("load suggestion catalogue: %w", err)
		}
		logger.Info("loaded suggestion catalogue",
			"path", cfg.Agent.SuggestionsFile, "entries", len(catalogue))
	}

	orch := orchestrator.New(m, s, sessions, func(o *orchestrator.Options) {
		o.ConfidenceThreshold = cfg.Agent.ConfidenceThreshold
		o.MaxModelCalls = cfg.Agent.MaxModelCalls
		o.Guard = guard.Config{
			Window:            cfg.Agent.RepeatWindow,
			MaxRetries:        cfg.Agent.ErrorLoopThreshold,
			OperationToolName: "execute_operation",
			Logger:            logger,
		}
		o.Suggestions = catalogue
		o.Logger = logger
	})

	app := newServer(orch, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "provider", m.Info().Provider)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
		return app.ShutdownWithTimeout(10 * time.Second)
	case <-ctx.Done():
		return app.ShutdownWithTimeout(10 * time.Second)
	}
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Model.Name != "" {
				o.Model = cfg.Model.Name
			}
			o.Temperature = cfg.Model.Temperature
		}), nil
	case "anthropic":
		optFns := []func(o *anthropic.Options){
			func(o *anthropic.Options) { o.Temperature = cfg.Model.Temperature },
		}
		if cfg.Model.Name != "" {
			optFns = append(optFns, anthropic.WithModel(cfg.Model.Name))
		}
		return anthropic.NewModel(optFns...), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}
}

func buildSessionStore(ctx context.Context, cfg *config.Config, logger logging.Logger) (core.SessionStore, error) {
	if cfg.Redis.URL == "" {
		logger.Warn("no redis url configured, using in-memory session store")
		return session.NewInMemoryStore(), nil
	}
	return session.NewRedisStoreFromURL(ctx, cfg.Redis.URL, func(o *session.RedisOptions) {
		o.TTL = time.Duration(cfg.Redis.SessionTTLHours) * time.Hour
	})
}
