package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkbridge/settlement/internal/settlement/db"
	"github.com/inkbridge/settlement/internal/settlement/handlers"
	"github.com/inkbridge/settlement/internal/settlement/invoice"
	"github.com/inkbridge/settlement/internal/settlement/orchestrator"
	"github.com/inkbridge/settlement/internal/settlement/outbox"
	"github.com/inkbridge/settlement/internal/settlement/pochain"
	"github.com/inkbridge/settlement/internal/settlement/pricing"
	"github.com/inkbridge/settlement/internal/settlement/routing"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort     int      `yaml:"HTTP_PORT"`
	DBHost       string   `yaml:"DB_HOST"`
	DBPort       int      `yaml:"DB_PORT"`
	DBUser       string   `yaml:"DB_USER"`
	DBPassword   string   `yaml:"DB_PASSWORD"`
	DBName       string   `yaml:"DB_NAME"`
	DBSSLMode    string   `yaml:"DB_SSLMODE"`
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`

	BrokerID       string `yaml:"BROKER_ID"`
	IntermediaryID string `yaml:"INTERMEDIARY_ID"`
	ProducerID     string `yaml:"PRODUCER_ID"`
	PONumberPrefix string `yaml:"PO_NUMBER_PREFIX"`

	OutboxIntervalSeconds int `yaml:"OUTBOX_INTERVAL_SECONDS"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}

	parties, err := loadParties(cfg)
	if err != nil {
		logger.Fatal("failed to parse chain parties", zap.Error(err))
	}

	interval := time.Duration(cfg.OutboxIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	dispatcher, err := outbox.NewDispatcher(cfg.KafkaBrokers, cfg.Topic, repo, logger, interval)
	if err != nil {
		log.Fatal("failed to initialize outbox dispatcher", err)
	}
	dispatcher.Start()

	chain := pochain.NewManager(repo, nil, parties.Producer, cfg.PONumberPrefix, logger)
	invoices := invoice.NewGenerator(repo, nil, logger)
	orch := orchestrator.NewOrchestrator(
		repo,
		pricing.NewCalculator(nil),
		routing.NewResolver(parties),
		chain,
		invoices,
		nil,
		nil,
		parties,
		logger,
	)

	router := gin.Default()
	handlers.NewHandler(orch, chain, invoices, logger).RegisterRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}
	go func() {
		logger.Info("HTTP server listening", zap.Int("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	waitForShutdown(server, dispatcher, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration. Use real config tooling (e.g. Viper) in production.
// TODO: some settings to env
func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "settlement", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// initDatabase initializes the database connection.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// loadParties parses the fixed chain participants from configuration.
func loadParties(cfg *Config) (routing.Parties, error) {
	broker, err := uuid.Parse(cfg.BrokerID)
	if err != nil {
		return routing.Parties{}, fmt.Errorf("BROKER_ID: %w", err)
	}
	intermediary, err := uuid.Parse(cfg.IntermediaryID)
	if err != nil {
		return routing.Parties{}, fmt.Errorf("INTERMEDIARY_ID: %w", err)
	}
	producer, err := uuid.Parse(cfg.ProducerID)
	if err != nil {
		return routing.Parties{}, fmt.Errorf("PRODUCER_ID: %w", err)
	}
	return routing.Parties{
		Broker:       broker,
		Intermediary: intermediary,
		Producer:     producer,
	}, nil
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then
// shuts down the HTTP server and drains the outbox dispatcher.
func waitForShutdown(server *http.Server, dispatcher *outbox.Dispatcher, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	dispatcher.Close()
	logger.Info("Servers stopped properly")
}
