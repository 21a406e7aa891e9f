package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/orderwatch/dupguard/internal/api"
	"github.com/orderwatch/dupguard/internal/config"
	"github.com/orderwatch/dupguard/internal/detection"
	"github.com/orderwatch/dupguard/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("initializing database", zap.String("path", cfg.DBPath))
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to init DB", zap.Error(err))
	}
	defer db.Close()

	runs := repository.NewRunRepo(db)
	svc := detection.NewService(runs, logger)

	router := api.NewRouter(runs, svc, api.RouterOptions{
		Defaults:    cfg.Detector,
		MaxUploadMB: cfg.MaxUploadMB,
		Logger:      logger,
	})

	logger.Info("order duplicate detector listening",
		zap.String("addr", "http://localhost:"+cfg.Port),
		zap.String("api_base", "/api/v1"),
		zap.Int("max_days", cfg.Detector.MaxDays),
		zap.Float64("min_amount_similarity", cfg.Detector.MinAmountSimilarity),
		zap.Float64("min_product_similarity", cfg.Detector.MinProductSimilarity),
		zap.String("exact_status", string(cfg.Detector.ExactStatus)))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
