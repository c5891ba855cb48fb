package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chibichitra/internal/storage"
)

// maxUploadBytes bounds a single photo upload.
const maxUploadBytes = 10 << 20

// UploadAndPreview stores the uploaded photo, runs the style pipeline and
// returns the processed preview's filename. The submission is not enqueued
// yet; that happens in SubmitFinal once the user approves the preview.
func (a *App) UploadAndPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "image exceeds the 10MB limit")
			return
		}
		a.error(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()

	animeName := strings.TrimSpace(r.FormValue("anime_name"))
	if animeName == "" {
		a.error(w, http.StatusBadRequest, "anime_name is required")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		a.error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(data) == 0 {
		a.error(w, http.StatusBadRequest, "no selected file")
		return
	}

	// Uploads share one directory; a random prefix keeps same-named photos
	// from clobbering each other.
	originalName := uploadFilename(header.Filename)
	if _, err := a.Files.Write(r.Context(), path.Join(storage.DirUploads, originalName), data); err != nil {
		a.Logger.Error().Err(err).Msg("upload: store original failed")
		a.error(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	preview, err := a.Pipeline.Render(r.Context(), originalName, data, animeName)
	if err != nil {
		a.Logger.Error().Err(err).Str("image", originalName).Msg("upload: preview pipeline failed")
		a.error(w, http.StatusInternalServerError, "processing failed")
		return
	}

	processedName := strings.TrimSuffix(originalName, filepath.Ext(originalName)) + ".png"
	if _, err := a.Files.Write(r.Context(), path.Join(storage.DirProcessed, processedName), preview); err != nil {
		a.Logger.Error().Err(err).Msg("upload: store preview failed")
		a.error(w, http.StatusInternalServerError, "failed to store preview")
		return
	}

	a.json(w, http.StatusOK, map[string]string{
		"status":         "success",
		"original_file":  originalName,
		"processed_file": processedName,
		"anime_name":     animeName,
	})
}

func uploadFilename(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload.png"
	}
	return fmt.Sprintf("%s_%s", uuid.NewString(), base)
}
