package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms/openai"

	"mygroceries/internal/api"
	"mygroceries/internal/config"
	"mygroceries/internal/conversation"
	"mygroceries/internal/database"
	"mygroceries/internal/interpret"
	"mygroceries/internal/ledger"
	"mygroceries/internal/normalize"
	"mygroceries/internal/orchestrator"
)

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	db, err := database.InitDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDB(db)

	table, err := normalize.NewTable(database.NewAliasDB(db))
	if err != nil {
		log.Fatalf("Failed to load alias table: %v", err)
	}

	model, err := initializeLLM(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}

	interpreter := interpret.New(model, table,
		interpret.WithTimeout(cfg.LLMTimeout()),
		interpret.WithTemperature(cfg.LLM.Temperature),
		interpret.WithMaxTokens(cfg.LLM.MaxTokens),
	)

	metrics := api.NewMetrics()
	hub := api.NewHub(metrics)

	machine := conversation.NewMachine(conversation.Config{
		ConfirmTTL:            cfg.ConfirmTTL(),
		RequireExplicitCancel: cfg.Conversation.RequireExplicitCancel,
	})

	bookkeeper := ledger.New(db)
	bot := orchestrator.New(interpreter, bookkeeper, table, machine, orchestrator.WithNotifier(hub))

	server := api.NewServer(bot, bookkeeper, table, hub, metrics, cfg.Auth.JWTSecret)

	go startMetricsServer(cfg.Server.MetricsPort, metrics)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Router,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}()

	log.Printf("Starting API server on port %d", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func initializeLLM(cfg *config.Config) (*openai.LLM, error) {
	opts := []openai.Option{
		openai.WithModel(cfg.LLM.Model),
		openai.WithToken(cfg.LLM.APIKey),
	}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
	}
	return llm, nil
}

func startMetricsServer(port int, metrics *api.Metrics) {
	metricsRouter := gin.Default()
	metricsRouter.GET("/metrics", gin.WrapH(metrics.Handler()))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	log.Printf("Starting metrics server on port %d", port)
	if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}
