package routes

import (
	"github.com/Dosada05/rift-arena/handlers"
	"github.com/Dosada05/rift-arena/middleware"
	"github.com/Dosada05/rift-arena/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes собирает весь HTTP-контур приложения.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	gameHandler *handlers.GameHandler,
	storeHandler *handlers.StoreHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Get("/users/me", userHandler.Me)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{id}", tournamentHandler.Get)
		r.Get("/{id}/registrations", tournamentHandler.ListRegistrations)
		r.Get("/{id}/matches", tournamentHandler.ListMatches)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Post("/{id}/register", tournamentHandler.Register)
			r.Post("/{id}/bracket", tournamentHandler.GenerateBracket)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{id}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/{id}/submit", matchHandler.SubmitResult)
			r.Post("/{id}/proof", matchHandler.AttachProof)
		})
	})

	router.Route("/games", func(r chi.Router) {
		r.Get("/", gameHandler.List)
		r.Get("/{id}", gameHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/", gameHandler.Create)
			r.Post("/{id}/join", gameHandler.Join)
			r.Post("/{id}/verify", gameHandler.Verify)
		})
	})

	router.Route("/store", func(r chi.Router) {
		r.Get("/items", storeHandler.ListItems)
		r.Post("/init-items", storeHandler.InitItems)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Post("/buy-sp", storeHandler.BuySP)
			r.Post("/redeem/{id}", storeHandler.Redeem)
			r.Get("/transactions", storeHandler.ListTransactions)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Use(middleware.RequireRole(models.RoleAdmin))

		r.Get("/users", adminHandler.ListUsers)
		r.Patch("/users/{id}", adminHandler.UpdateUser)
		r.Delete("/users/{id}", adminHandler.DeleteUser)
		r.Delete("/games/{id}", adminHandler.DeleteGame)
		r.Get("/redemptions", adminHandler.ListRedemptions)
		r.Post("/redemptions/{id}/email-sent", adminHandler.MarkRedemptionEmailSent)
		r.Post("/redemptions/{id}/fulfill", adminHandler.FulfillRedemption)
		r.Get("/stats", adminHandler.Stats)
	})

	router.Route("/ws", func(r chi.Router) {
		r.Get("/tournaments/{id}", webSocketHandler.ServeTournament)
		r.Get("/games/{id}", webSocketHandler.ServeGame)
	})
}
