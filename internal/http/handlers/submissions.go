package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"chibichitra/internal/domain"
	"chibichitra/internal/ledger"
)

// historyLimit matches the status panel: the last five submissions.
const historyLimit = 5

type submitFinalRequest struct {
	ProcessedFile string `json:"processed_file"`
	AnimeName     string `json:"anime_name"`
	Email         string `json:"email"`
}

// SubmitFinal enqueues the approved preview for offline 3D generation and
// email delivery.
func (a *App) SubmitFinal(w http.ResponseWriter, r *http.Request) {
	var req submitFinalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	id, err := a.Registry.Enqueue(r.Context(), req.ProcessedFile, req.AnimeName, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			a.error(w, http.StatusBadRequest, "missing data")
			return
		}
		a.Logger.Error().Err(err).Msg("submit: enqueue failed")
		a.error(w, http.StatusInternalServerError, "failed to queue submission")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"status": "success", "id": id})
}

// History returns the most recent submissions for the live status table.
func (a *App) History(w http.ResponseWriter, r *http.Request) {
	records, err := a.View.Recent(r.Context(), historyLimit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history: load failed")
		a.error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	items := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		items = append(items, map[string]any{
			"id":             rec.ID,
			"image_filename": rec.ImageFilename,
			"anime_name":     rec.AnimeName,
			"email_id":       rec.Email,
			"build_status":   statusFlag(rec.Stage.BuildDone()),
			"mail_status":    statusFlag(rec.Stage.MailDone()),
			"timestamp":      rec.SubmittedAt.Format(ledger.TimestampLayout),
		})
	}
	a.json(w, http.StatusOK, items)
}

func statusFlag(done bool) string {
	if done {
		return "Y"
	}
	return "N"
}
