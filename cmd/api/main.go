package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/api"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/carbon"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/config"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/identity"
	"carbon-scribe/esg-metrics/esg-metrics-backend/internal/records"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to access database pool", zap.Error(err))
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := records.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	repo := records.NewRepository(db)

	recordsService := records.NewService(repo, identity.NewStaticResolver(nil), logger)
	carbonService := carbon.NewService(recordsService, cfg.Carbon, logger)
	recordsService.RegisterPayloadValidator(records.DomainCarbon, carbon.NewPayloadValidator())

	production := cfg.Logging.Level != "debug" && cfg.Logging.Level != "development"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	handler := api.NewHandler(recordsService, carbonService, logger, production)
	handler.RegisterRoutes(r.Group("/api/v1"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	addr := cfg.Server.GetServerAddr()
	logger.Info("Starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	switch level {
	case "debug", "development":
		return zap.NewDevelopment()
	case "info", "warn", "error", "":
		zapCfg := zap.NewProductionConfig()
		if level != "" && level != "info" {
			parsed, err := zap.ParseAtomicLevel(level)
			if err != nil {
				return nil, fmt.Errorf("invalid log level %q: %w", level, err)
			}
			zapCfg.Level = parsed
		}
		return zapCfg.Build()
	default:
		return nil, fmt.Errorf("invalid log level %q", level)
	}
}
