package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mberk/pdfshelf-be/internal/api/handlers"
	"github.com/mberk/pdfshelf-be/internal/auth"
	"github.com/mberk/pdfshelf-be/internal/config"
	"github.com/mberk/pdfshelf-be/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, userService services.UserServiceProvider,
	bookService services.BookServiceProvider, eventService services.EventServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Uploads arrive as base64 JSON bodies, so the ceiling is generous.
	r.Use(middleware.RequestSize(cfg.MaxBodyBytes))

	// CORS configuration for the Expo development client
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:19000", "http://localhost:19006", "exp://localhost:19000", "exp://localhost:19006"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.TokenTTL)
	bookHandler := handlers.NewBookHandler(bookService)
	eventHandler := handlers.NewEventHandler(eventService)

	protect := auth.Middleware(cfg.JWTSecret, userService)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Put("/update-password", authHandler.UpdatePassword)
				r.Put("/update-username", authHandler.UpdateUsername)
			})
		})

		r.Route("/books", func(r chi.Router) {
			r.Use(protect)
			r.Post("/", bookHandler.Create)
			r.Get("/", bookHandler.GetAll)
			r.Get("/user", bookHandler.GetMine)
			r.Post("/test-upload", bookHandler.TestUpload)
			r.Put("/{id}", bookHandler.Update)
			r.Delete("/{id}", bookHandler.Delete)
		})

		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Get("/activity", eventHandler.GetRecent)
		})
	})

	return r
}
