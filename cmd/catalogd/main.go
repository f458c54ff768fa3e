package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lixing-Zhang/product-catalog/internal/config"
	"github.com/Lixing-Zhang/product-catalog/internal/handlers"
	"github.com/Lixing-Zhang/product-catalog/internal/models"
	"github.com/Lixing-Zhang/product-catalog/internal/repository"
	"github.com/Lixing-Zhang/product-catalog/internal/service"
	"github.com/Lixing-Zhang/product-catalog/pkg/logger"
)

func main() {
	envFile := flag.String("env-file", ".env", "load environment variables from this file if it exists")
	empty := flag.Bool("empty", false, "start without sample products")
	dbPath := flag.String("db", "", "store products in this SQLite file (env DB_PATH); in memory when empty")
	flag.Parse()

	// Load configuration from environment
	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	// Initialize structured logger
	log := logger.NewWithWriter(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	log.Info("starting products api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.Log.Level,
		"version", handlers.Version,
	)

	// Initialize repositories
	var seed []models.Product
	if !*empty {
		seed = repository.SeedProducts()
	}
	var productRepo repository.ProductRepository
	if cfg.Server.DBPath != "" {
		sqliteRepo, err := repository.OpenSQLite(context.Background(), cfg.Server.DBPath, seed)
		if err != nil {
			log.Error("failed to open product database", "path", cfg.Server.DBPath, "error", err)
			os.Exit(1)
		}
		defer sqliteRepo.Close()
		productRepo = sqliteRepo
		log.Info("using sqlite product store", "path", cfg.Server.DBPath)
	} else {
		productRepo = repository.NewInMemoryProductRepository(seed)
	}

	// Initialize services
	productService := service.NewProductService(productRepo)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(productService, log),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
