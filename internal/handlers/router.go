package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appMiddleware "github.com/apodboard/backend/internal/middleware"
)

// Deps bundles what the router needs to mount every route.
type Deps struct {
	Tokens appMiddleware.TokenVerifier
	Policy appMiddleware.Authorizer

	Auth  *AuthHandler
	Posts *PostHandler
	Votes *VoteHandler
	Apod  *ApodHandler
	Admin *AdminHandler
	Pages *PageHandler
}

func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public
	r.With(appMiddleware.OptionalAuth(d.Tokens)).Get("/", d.Pages.Index)
	r.Post("/users", d.Auth.Register)
	r.Post("/login", d.Auth.Login)
	r.Get("/logout", d.Auth.Logout)
	r.Get("/posts", d.Posts.List)
	r.Get("/posts/{id}", d.Posts.Get)
	r.Get("/users/{id}/posts", d.Posts.ListByUser)

	// Signed in and not banned
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(d.Tokens))
		r.Use(appMiddleware.RequireActive(d.Policy))

		r.Get("/protected", d.Auth.Protected)
		r.Post("/votes", d.Votes.Create)
		r.Post("/votes/delete", d.Votes.Delete)
		r.Post("/get_apod", d.Apod.GetAPOD)
	})

	// Administrators
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAuth(d.Tokens))
		r.Use(appMiddleware.RequireAdmin(d.Policy))

		r.Post("/posts", d.Posts.Create)
		r.Put("/posts", d.Posts.Update)
		r.Delete("/posts/{id}", d.Posts.Delete)

		r.Post("/ban", d.Admin.Ban)
		r.Post("/unban", d.Admin.Unban)
		r.Post("/promote", d.Admin.Promote)
		r.Post("/demote", d.Admin.Demote)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("The requested page could not be found"))
	})

	return r
}
