package routes

import (
	"net/http"

	_ "github.com/Dosada05/royale-tournaments/docs"
	"github.com/Dosada05/royale-tournaments/handlers"
	"github.com/Dosada05/royale-tournaments/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	organizerOnly := middleware.Authorize(middleware.RoleOrganizer, middleware.RoleAdmin)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/tournaments", func(r chi.Router) {
		// Public
		r.Get("/", tournamentHandler.ListHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Get("/{tournamentID}/standings", tournamentHandler.StandingsHandler)
		r.Get("/{tournamentID}/lobbies", tournamentHandler.LobbiesHandler)

		// Teams: registration and check-in
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{tournamentID}/registrations", tournamentHandler.RegisterTeamHandler)
			r.Delete("/{tournamentID}/registrations/{teamID}", tournamentHandler.WithdrawTeamHandler)
			r.Post("/{tournamentID}/registrations/{teamID}/check-in", tournamentHandler.CheckInHandler)
		})

		// Organizers
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(organizerOnly)
			r.Post("/", tournamentHandler.CreateHandler)
			r.Delete("/{tournamentID}", tournamentHandler.DeleteHandler)
			r.Post("/{tournamentID}/lock", tournamentHandler.LockHandler)
			r.Post("/{tournamentID}/unlock", tournamentHandler.UnlockHandler)
			r.Post("/{tournamentID}/qualifiers", tournamentHandler.GenerateLobbiesHandler)
			r.Put("/{tournamentID}/lobbies/{lobbyID}/games/{gameID}/results", tournamentHandler.RecordLobbyGameHandler)
			r.Post("/{tournamentID}/qualifiers/{order}/process", tournamentHandler.ProcessLobbyHandler)
			r.Put("/{tournamentID}/games/{gameNumber}/results", tournamentHandler.RecordFinalsGameHandler)
			r.Post("/{tournamentID}/publish", tournamentHandler.PublishHandler)
			r.Put("/{tournamentID}/publish-schedule", tournamentHandler.SchedulePublishHandler)
			r.Post("/{tournamentID}/reset-scores", tournamentHandler.ResetScoresHandler)
		})
	})
}
