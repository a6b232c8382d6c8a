// Package main runs the webpilot service: a browser task execution
// engine driven over a WebSocket control channel. A planner role breaks
// tasks into sub-tasks, a navigator role executes them against a live
// browser session, and every state change streams back to the client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/agent"
	"github.com/webpilot-ai/webpilot/pkg/agent/events"
	"github.com/webpilot-ai/webpilot/pkg/agent/tools"
	"github.com/webpilot-ai/webpilot/pkg/browser"
	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/llm/openai"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/server"
	"github.com/webpilot-ai/webpilot/pkg/tasks"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("webpilot %s\n", version)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "webpilot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	paths, err := config.NewPaths(cfg.BaseDir)
	if err != nil {
		return err
	}
	logging.Configure(paths.Logs)

	log, err := logging.NewLogger("main")
	if err != nil {
		log.Warnf("failed to initialize main logger, using stderr fallback: %v", err)
	}
	log.Infof("webpilot %s starting, base dir %s", version, paths.Base)

	plannerProvider, err := buildProvider(cfg.Planner)
	if err != nil {
		return fmt.Errorf("planner provider: %w", err)
	}
	navigatorProvider, err := buildProvider(cfg.Navigator)
	if err != nil {
		return fmt.Errorf("navigator provider: %w", err)
	}

	registry, err := tools.DefaultRegistry()
	if err != nil {
		return fmt.Errorf("tool registry: %w", err)
	}

	bus := events.NewBus()
	if cfg.LogEvents {
		bus.Subscribe(types.EventTypeExecution, events.LoggingCallback())
	}

	browserManager := browser.NewManager(cfg.Browser, paths.Screenshots)

	engine := agent.NewEngine(agent.Options{
		PlannerProvider:   plannerProvider,
		NavigatorProvider: navigatorProvider,
		Browser:           browserManager,
		Bus:               bus,
		Registry:          registry,
		Transcripts:       agent.NewTranscriptStore(paths.Messages),
		SaveChatHistory:   cfg.SaveChatHistory,
		Retry: llm.RetryConfig{
			Attempts: cfg.Retry.Attempts,
			Backoff:  cfg.Retry.Backoff(),
		},
		MaxSteps:      cfg.MaxSteps,
		MaxErrors:     cfg.MaxErrors,
		MaxToolRounds: cfg.MaxToolRounds,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Initialize(ctx); err != nil {
		return err
	}
	defer engine.Close()

	store, err := tasks.NewStore(paths.Tasks)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.Host, cfg.Server.Port, engine, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("server shutdown: %v", err)
		}
		return nil
	}
}

// buildProvider wires one decision role's LLM client.
func buildProvider(cfg config.AgentConfig) (llm.Provider, error) {
	opts := []openai.ProviderOption{openai.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	return openai.NewProvider(cfg.APIKey, opts...)
}
