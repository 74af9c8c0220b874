package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/handler"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/middleware"
	"github.com/sandeepkv93/pluggable-store-backend-starter-kit/internal/http/response"
)

const DefaultBodyLimit = 10 << 20

type RateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	UserHandler   *handler.UserHandler
	HealthHandler *handler.HealthHandler
	CORS          middleware.CORSConfig
	BodyLimit     int64
	// RateLimiter guards /api and /users; nil disables limiting.
	RateLimiter    RateLimiterFunc
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	bodyLimit := dep.BodyLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}
	limiter := dep.RateLimiter
	if limiter == nil {
		limiter = middleware.Passthrough
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORS))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Not Found - "+r.URL.RequestURI(), nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed", nil)
	})

	r.Get("/health/live", dep.HealthHandler.Live)
	r.Get("/health/ready", dep.HealthHandler.Ready)
	r.With(limiter).Get("/api/health", dep.HealthHandler.API)

	r.Route("/users", func(r chi.Router) {
		r.Use(limiter)
		r.Group(func(r chi.Router) {
			r.Use(middleware.BodyLimit(bodyLimit))
			r.Get("/", dep.UserHandler.List)
			r.Post("/", dep.UserHandler.Create)
			r.Get("/stats", dep.UserHandler.Stats)
			r.Get("/active", dep.UserHandler.Active)
			r.Get("/recent", dep.UserHandler.Recent)
			r.Get("/nearby", dep.UserHandler.Nearby)

			r.Get("/{id}", dep.UserHandler.Get)
			r.Patch("/{id}", dep.UserHandler.Update)
			r.Delete("/{id}", dep.UserHandler.Delete)
			r.Post("/{id}/promote-vip", dep.UserHandler.PromoteVIP)
			r.Post("/{id}/login", dep.UserHandler.RecordLogin)

			r.Post("/{id}/profile", dep.UserHandler.CreateProfile)
			r.Get("/{id}/profile", dep.UserHandler.GetProfile)
			r.Patch("/{id}/profile", dep.UserHandler.UpdateProfile)
			r.Delete("/{id}/profile/avatar", dep.UserHandler.DeleteAvatar)
		})
		r.With(middleware.BodyLimit(handler.AvatarBodyLimit)).Post("/{id}/profile/avatar", dep.UserHandler.UploadAvatar)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
