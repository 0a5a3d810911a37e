package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourorg/portfolio-sim/internal/client"
	"github.com/yourorg/portfolio-sim/internal/config"
	"github.com/yourorg/portfolio-sim/internal/handler"
	"github.com/yourorg/portfolio-sim/internal/kafka"
	"github.com/yourorg/portfolio-sim/internal/middleware"
	"github.com/yourorg/portfolio-sim/internal/repository"
	"github.com/yourorg/portfolio-sim/internal/service"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Set up logger
	logger, err := createLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	db, err := connectToDB(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Custom binding rules
	if err := handler.RegisterValidations(); err != nil {
		logger.Fatal("Failed to register validations", zap.Error(err))
	}

	// Initialize repositories
	runRepo := repository.NewRunRepository(db, logger)

	// Initialize event producer
	var producer *kafka.Producer
	if cfg.Kafka.Brokers != "" {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, "portfolio-sim", logger)
		defer producer.Close()
	}

	// Initialize clients
	var marketDataClient *client.MarketDataClient
	if cfg.MarketData.URL != "" {
		marketDataClient = client.NewMarketDataClient(
			cfg.MarketData.URL,
			cfg.MarketData.Timeout,
			cfg.MarketData.MaxRetries,
			logger,
		)
	}

	// Initialize services
	eventsTopic := cfg.Kafka.Topics["portfolioEvents"]
	simulationService := service.NewSimulationService(runRepo, producer, eventsTopic, cfg.Simulation, logger)
	backtestService := service.NewBacktestService(runRepo, marketDataClient, producer, eventsTopic, logger)

	// Initialize handlers
	simulationHandler := handler.NewSimulationHandler(simulationService, logger)
	backtestHandler := handler.NewBacktestHandler(backtestService, logger)
	strategyHandler := handler.NewStrategyHandler(logger)

	// Set up HTTP server with Gin
	router := setupRouter(simulationHandler, backtestHandler, strategyHandler, logger, cfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

func createLogger(level string) (*zap.Logger, error) {
	// Parse log level
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	// Create logger config
	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}

func connectToDB(dbConfig config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.DBName,
		dbConfig.SSLMode,
	)

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(dbConfig.MaxOpenConns)
	db.SetMaxIdleConns(dbConfig.MaxIdleConns)
	db.SetConnMaxLifetime(dbConfig.ConnMaxLifetime)

	return db, nil
}

func setupRouter(
	simulationHandler *handler.SimulationHandler,
	backtestHandler *handler.BacktestHandler,
	strategyHandler *handler.StrategyHandler,
	logger *zap.Logger,
	cfg *config.Config,
) *gin.Engine {
	router := gin.New()

	// Use middlewares
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Strategy registry
		v1.GET("/strategies", strategyHandler.ListStrategies)

		// Forward simulation routes
		simulations := v1.Group("/simulations")
		{
			simulations.POST("", simulationHandler.CreateSimulation)
			simulations.GET("", simulationHandler.ListSimulations)
			simulations.GET("/:id", simulationHandler.GetSimulation)
			simulations.GET("/:id/chart", simulationHandler.GetSimulationChart)
			simulations.GET("/:id/metrics", simulationHandler.GetSimulationMetrics)
		}

		// Backtest routes
		backtests := v1.Group("/backtests")
		{
			backtests.POST("", backtestHandler.CreateBacktest)
			backtests.GET("", backtestHandler.ListBacktests)
			backtests.GET("/:id", backtestHandler.GetBacktest)
			backtests.GET("/:id/chart", backtestHandler.GetBacktestChart)
			backtests.GET("/:id/metrics", backtestHandler.GetBacktestMetrics)
		}

		// Service-to-service routes (requires service key)
		svc := v1.Group("/service")
		svc.Use(middleware.ServiceAuthMiddleware(cfg.ServiceKey, logger))
		{
			svc.POST("/simulations", simulationHandler.CreateSimulation)
			svc.POST("/backtests", backtestHandler.CreateBacktest)
		}
	}
	return router
}
