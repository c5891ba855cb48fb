package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"chibichitra/internal/http/handlers"
	"chibichitra/internal/middleware"
)

// Options carries the router's tunables.
type Options struct {
	Logger          zerolog.Logger
	RateLimitPerMin int
	AllowedOrigins  []string
}

// NewRouter wires the application routes. Static assets (uploads, processed
// previews, built meshes) are served straight from the file store root.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/", app.Index)
	r.Get("/v1/healthz", app.Health)
	r.Get("/api/history", app.History)
	r.Post("/submit_final", app.SubmitFinal)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMin > 0 {
			r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		}
		r.Post("/upload_and_preview", app.UploadAndPreview)
	})

	fileServer := http.FileServer(http.Dir(app.Files.BasePath()))
	r.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	return r
}
