package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"chibichitra/internal/providers/style"
	"chibichitra/internal/queue"
	"chibichitra/internal/storage"
)

// App bundles the handler dependencies: the submission queue surfaces, the
// asset store and the preview pipeline.
type App struct {
	Logger   zerolog.Logger
	Registry *queue.Registry
	View     *queue.View
	Files    *storage.FileStore
	Pipeline *style.Pipeline
}

func NewApp(logger zerolog.Logger, registry *queue.Registry, view *queue.View, files *storage.FileStore, pipeline *style.Pipeline) *App {
	return &App{Logger: logger, Registry: registry, View: view, Files: files, Pipeline: pipeline}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
