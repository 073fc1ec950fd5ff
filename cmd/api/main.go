package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/petrioteer/swatantra.ai/internal/app"
	"github.com/petrioteer/swatantra.ai/internal/config"
	"github.com/petrioteer/swatantra.ai/internal/server"
	"github.com/petrioteer/swatantra.ai/pkg/Logger"
)

// @title Swatantra AI Voice API
// @version 1.0
// @description Relays real-time audio between browser clients and upstream conversational AI voice services.
// @BasePath /api/v1

// This is the main entry point for the API server.
// Loads in all system components
// Exposes functionalities
func main() {
	// fetch cfg
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	// load global logger
	logger := Logger.New(cfg.Debug)
	logger.Info("Logger initialized")

	// wire dependencies
	application, err := app.NewApp(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to wire application: %v", err)
	}

	// compose router
	router := gin.New()
	server.InitializeRoutes(router, application.GetServerDependencies())

	// listen with graceful exit
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router.Handler(),
	}
	go func() {
		logger.Infof("Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server exiting %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Sessions first so queued audio gets its drain window, then the listener.
	application.Shutdown()

	// 5 secs then cancel
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown err %v", err)
	}
	logger.Info("Shutdown system")
}
