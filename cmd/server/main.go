package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/vacathon/vacathon-api/internal/auth"
	"github.com/vacathon/vacathon-api/internal/config"
	"github.com/vacathon/vacathon-api/internal/database"
	"github.com/vacathon/vacathon-api/internal/handlers"
	"github.com/vacathon/vacathon-api/internal/logging"
	"github.com/vacathon/vacathon-api/internal/notifier"
	"github.com/vacathon/vacathon-api/internal/registration"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	db := database.Connect(cfg)

	inbox := notifier.NewInboxNotifier(db, logger)
	service := registration.NewService(db, inbox, logger)

	authHandler := auth.NewAuthHandler(cfg, db)
	h := handlers.Handlers{
		Auth:               authHandler,
		Events:             handlers.NewEventsHandler(db),
		Registrations:      handlers.NewRegistrationsHandler(db, service),
		Forum:              handlers.NewForumHandler(db),
		Notifications:      handlers.NewNotificationsHandler(db),
		Profiles:           handlers.NewProfilesHandler(db),
		AdminEvents:        handlers.NewAdminEventsHandler(db),
		AdminRegistrations: handlers.NewAdminRegistrationsHandler(db, service),
	}

	r := chi.NewRouter()
	handlers.RegisterRoutes(r, cfg, logger, h)

	logger.Info().Str("port", cfg.Port).Msg("starting server")
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
