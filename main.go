package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mberk/pdfshelf-be/internal/api"
	"github.com/mberk/pdfshelf-be/internal/config"
	"github.com/mberk/pdfshelf-be/internal/database"
	"github.com/mberk/pdfshelf-be/internal/logger"
	"github.com/mberk/pdfshelf-be/internal/monitoring"
	"github.com/mberk/pdfshelf-be/internal/services"
	"github.com/mberk/pdfshelf-be/internal/storage"
)

func main() {
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET must be set")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the blob store
	blobs, err := storage.NewS3Store(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize blob store")
	}

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService, cfg.AvatarBaseURL)
	maintService := services.NewMaintenanceService(db, blobs)
	bookService := services.NewBookService(db, blobs, eventService, maintService)

	// Set up and run the background janitor
	janitor, err := monitoring.NewJanitor(maintService, eventService, cfg.JanitorSchedule,
		time.Duration(cfg.EventRetentionDays)*24*time.Hour)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid janitor schedule")
	}
	go janitor.Run()

	// Set up router
	router := api.NewRouter(cfg, userService, bookService, eventService)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
