package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/petanque-system/handlers"
	"github.com/Dosada05/petanque-system/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

// SetupRoutes mounts the draw API and the live websocket on router. Reading
// draws is public; launching them needs an organizer or admin token.
func SetupRoutes(router chi.Router, drawHandler *handlers.DrawHandler, wsHandler *handlers.WebSocketHandler, opts Options) {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if wsHandler != nil {
		router.Get("/ws/tournaments/{tournamentID}", wsHandler.ServeWs)
	}

	router.Route("/tournaments/{tournamentID}", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Get("/draws/{kind}/{round}", drawHandler.GetDrawLogHandler)
		r.Get("/rounds/{round}/verify", drawHandler.VerifyRoundHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(opts.JWTSecret, opts.Logger))
			r.Use(middleware.RequireRole(middleware.RoleOrganizer, middleware.RoleAdmin))

			r.Post("/start", drawHandler.StartTournamentHandler)
			r.Post("/rounds/{round}/draw", drawHandler.LaunchRoundHandler)
			r.Post("/bracket/draw", drawHandler.DrawBracketHandler)
			r.Post("/pools/draw", drawHandler.DrawPoolsHandler)
		})
	})
}
