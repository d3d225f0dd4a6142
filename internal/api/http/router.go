package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-interview/internal/auth/middleware"
	"github.com/mind-engage/mindengage-interview/internal/logging"
	"github.com/mind-engage/mindengage-interview/internal/rbac"
)

type Deps struct {
	DB       *sql.DB
	Auth     *authmw.AuthService
	Users    authmw.Authenticator // nil disables /auth/login
	Sessions Sessions
	Profiles ProfileStore
	Results  ResultStore

	CORSOrigins []string
	// AllowClaimFallback trusts the token role for subjects missing from users.
	AllowClaimFallback bool
	RequestTimeout     time.Duration
}

func NewRouter(d Deps) chi.Router {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 90 * time.Second // covers a slow scoring call
	}
	accessLog := middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logging.Logger, NoColor: true})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, accessLog, middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Users != nil {
		r.Post("/auth/login", authmw.LoginHandler(d.Auth, d.Users))
	}

	// Protected API (JWT → role from DB → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.DB != nil {
			pr.Use(authmw.AttachRoleFromDB(d.DB, d.AllowClaimFallback))
		}

		pr.With(rbac.Require("profile:edit")).Get("/profile", GetProfileHandler(d.Profiles))
		pr.With(rbac.Require("profile:edit")).Put("/profile", PutProfileHandler(d.Profiles))

		pr.Route("/sessions/{sessionID}", func(sr chi.Router) {
			sr.With(rbac.Require("session:enter")).Post("/enter", EnterSessionHandler(d.Sessions))
			sr.With(rbac.Require("session:view")).Get("/", GetSessionHandler(d.Sessions))
			sr.With(rbac.Require("session:answer")).Put("/draft", DraftHandler(d.Sessions))
			sr.With(rbac.Require("session:answer")).Post("/advance", AdvanceHandler(d.Sessions))
			sr.With(rbac.Require("session:finish")).Post("/finish", FinishHandler(d.Sessions))
		})

		pr.With(rbac.Require("results:view")).
			Get("/results", ListResultsHandler(d.Results))
		pr.With(rbac.Require("results:view")).
			Get("/results/{sessionID}", GetResultHandler(d.Results))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.DB != nil {
			if err := d.DB.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})
	return r
}
