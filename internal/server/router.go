package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskboard/internal/handler"
	"github.com/BuzzLyutic/taskboard/internal/service"
	"github.com/BuzzLyutic/taskboard/pkg/respond"
)

type Deps struct {
	Auth           *service.AuthService
	Boards         *service.BoardService
	Tasks          *service.TaskService
	Logger         *zap.Logger
	AllowedOrigins []string
}

// New собирает chi роутер со всеми маршрутами API
func New(d Deps) http.Handler {
	authH := handler.NewAuthHandler(d.Auth, d.Logger)
	boardH := handler.NewBoardHandler(d.Boards, d.Logger)
	taskH := handler.NewTaskHandler(d.Tasks, d.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handler.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authH.Signup)
		r.Post("/auth/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(handler.RequireAuth(d.Auth, d.Logger))

			r.Get("/auth/me", authH.Me)

			r.Route("/boards", func(r chi.Router) {
				r.Get("/", boardH.List)
				r.Post("/", boardH.Create)
				r.Get("/{id}", boardH.Get)
				r.Put("/{id}", boardH.Update)
				r.Delete("/{id}", boardH.Delete)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskH.List)
				r.Post("/", taskH.Create)
				r.Get("/{id}", taskH.Get)
				r.Put("/{id}", taskH.Update)
				r.Delete("/{id}", taskH.Delete)
			})
		})
	})

	return r
}
