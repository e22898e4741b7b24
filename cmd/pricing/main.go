package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jimmyrisk/GP-Quant/internal/pricing/application"
	"github.com/jimmyrisk/GP-Quant/internal/pricing/infrastructure/messaging"
	"github.com/jimmyrisk/GP-Quant/internal/pricing/infrastructure/persistence/mysql"
	pricing_http "github.com/jimmyrisk/GP-Quant/internal/pricing/interfaces/http"
	"github.com/jimmyrisk/GP-Quant/pkg/config"
	"github.com/jimmyrisk/GP-Quant/pkg/db"
	"github.com/jimmyrisk/GP-Quant/pkg/logger"
	"github.com/jimmyrisk/GP-Quant/pkg/metrics"
	"github.com/jimmyrisk/GP-Quant/pkg/mq"
	"github.com/jimmyrisk/GP-Quant/pkg/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/pricing/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	ctx := context.Background()

	// 3. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "connect db failed", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(&mysql.ValuationRunModel{}); err != nil {
		logger.Fatal(ctx, "migrate db failed", "error", err)
	}

	// 4. Kafka
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		GroupID:      cfg.Kafka.GroupID,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "create kafka producer failed", "error", err)
	}
	defer producer.Close()

	// 5. Metrics
	m := metrics.New("pricing")
	if cfg.Metrics.Enabled {
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "register metrics failed", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "start metrics server failed", "error", err)
		}
	}

	// 6. Infrastructure & Application
	repo := mysql.NewValuationRepo(database.DB)
	publisher := messaging.NewKafkaEventPublisher(producer)
	idgen := utils.NewSnowflakeID(1)
	service := application.NewValuationService(repo, publisher, m, idgen, application.EngineDefaults{
		Workers:        cfg.Engine.Workers,
		TestPaths:      cfg.Engine.DefaultTestPaths,
		BenchmarkPaths: cfg.Engine.BenchmarkPaths,
	})

	// 7. Interfaces
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	handler := pricing_http.NewValuationHandler(service)
	handler.RegisterRoutes(r.Group(""))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "http server failed", "error", err)
		}
	}()

	// 8. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "http shutdown failed", "error", err)
	}
	logger.Info(ctx, "Server exiting")
}
