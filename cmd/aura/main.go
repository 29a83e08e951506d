// Aura - AI companion chat server entry point
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/auralabs/aura/internal/api"
	"github.com/auralabs/aura/internal/api/ws"
	"github.com/auralabs/aura/internal/domain/chat"
	"github.com/auralabs/aura/internal/domain/companion"
	"github.com/auralabs/aura/internal/domain/credential"
	"github.com/auralabs/aura/internal/domain/settings"
	"github.com/auralabs/aura/internal/infra/config"
	"github.com/auralabs/aura/internal/infra/eventbus"
	"github.com/auralabs/aura/internal/infra/image"
	"github.com/auralabs/aura/internal/infra/llm"
	"github.com/auralabs/aura/internal/infra/sqlite"
	"github.com/auralabs/aura/internal/server"
	"github.com/auralabs/aura/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("aura", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "", "Path to a YAML config file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if err := serve(*configPath); err != nil {
		fmt.Fprintf(out, "aura: %v\n", err) //nolint:errcheck
		return 1
	}
	return 0
}

func serve(configPath string) error {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	cfg := config.Load()
	if configPath != "" {
		var err error
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("run migrations: %w", err)
	}

	companions := companion.NewService(db)
	credentials := credential.NewService(db)

	registry, err := llm.NewRegistry(cfg.DefaultProvider,
		llm.NewGeminiProvider(credentials, llm.GeminiConfig{Model: cfg.GeminiModel}),
		llm.NewDeepSeekProvider(credentials, llm.DeepSeekConfig{
			Model:   cfg.DeepSeekModel,
			BaseURL: cfg.DeepSeekBaseURL,
		}),
	)
	if err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("build provider registry: %w", err)
	}

	bus := eventbus.New()
	hub := ws.NewHub(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go ws.NewNotifier(hub, bus, log).Run(ctx)

	srv := server.NewServer(db, server.Config{
		Host:         cfg.Host,
		Port:         cfg.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, api.Deps{
		Companions:   companions,
		Credentials:  credentials,
		Settings:     settings.NewService(db),
		Orchestrator: chat.NewOrchestrator(companions, registry, bus, log, cfg.ProviderTimeout),
		Images: image.NewGenerator(credentials, image.Config{
			StabilityURL:   cfg.StabilityURL,
			HuggingFaceURL: cfg.HuggingFaceURL,
		}, log),
		Hub: hub,
		Log: log,
	}, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func printHelp(out io.Writer) {
	helpText := `Aura - AI companion chat server

Usage:
  aura [options]

Options:
  --version        Show version information
  --help           Show this help message
  --config PATH    Load settings from a YAML file (env vars still override)

Environment:
  AURA_HOST, AURA_PORT, AURA_DB_PATH, AURA_DEFAULT_PROVIDER,
  AURA_PROVIDER_TIMEOUT, GEMINI_MODEL, DEEPSEEK_BASE_URL, DEEPSEEK_MODEL,
  STABILITY_URL, HUGGINGFACE_URL

Examples:
  aura
  aura --config aura.yaml
  aura --version`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
