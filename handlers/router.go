package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/habitloop/server/auth"
)

// Router assembles the public API: auth routes in the open, habit routes
// behind the bearer-token middleware.
func Router(h *Handler, origins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(RateLimit(100, 15*time.Minute))

	r.Get("/", h.Health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Route("/api/habits", func(r chi.Router) {
		r.Use(auth.Middleware(h.Secret))
		r.Post("/", h.CreateHabit)
		r.Get("/", h.ListHabits)
		r.Get("/stats", h.Stats)
		r.Post("/{id}/checkin", h.CheckIn)
		r.Delete("/{id}", h.DeleteHabit)
	})

	return r
}
