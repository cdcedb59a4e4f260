package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aeroconcept/sizer/internal/api"
	"github.com/aeroconcept/sizer/internal/config"
	"github.com/aeroconcept/sizer/internal/sizing"
	"github.com/aeroconcept/sizer/internal/storage/sqlite"
	"github.com/aeroconcept/sizer/internal/tradestudy"
	"github.com/aeroconcept/sizer/internal/websocket"
	"github.com/aeroconcept/sizer/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting sizing server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
	)

	// Ensure the database directory exists
	dbDir := filepath.Dir(cfg.Storage.SQLitePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", dbDir))
		os.Exit(1)
	}

	designStorage, err := sqlite.NewDesignStorage(cfg.Storage.SQLitePath, cfg.Storage.MaxCurvePoints, log)
	if err != nil {
		log.Error("Failed to create SQLite storage", logger.Error(err))
		os.Exit(1)
	}
	defer designStorage.Close()
	log.Info("Using SQLite storage", logger.String("path", cfg.Storage.SQLitePath))

	// Create WebSocket server
	wsServer := websocket.NewServer(log)
	go wsServer.Run()

	// Create sizing engine and trade-study runner
	sizer := sizing.New(cfg.Sizing, log)
	runner := tradestudy.NewRunner(sizer, cfg.TradeStudy.Workers, log)

	// Create API router
	router := api.NewRouter(sizer, runner, designStorage, cfg, log, wsServer)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error on startup", logger.String("addr", server.Addr), logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	} else {
		log.Info("HTTP server shutdown complete")
	}

	log.Info("Server fully stopped")
}
