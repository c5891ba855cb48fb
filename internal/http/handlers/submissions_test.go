package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"chibichitra/internal/domain"
	"chibichitra/internal/ledger"
	"chibichitra/internal/providers/style"
	"chibichitra/internal/queue"
	"chibichitra/internal/storage"
)

func newTestApp(t *testing.T) (*App, *ledger.Store) {
	t.Helper()
	root := t.TempDir()
	store, err := ledger.NewStore(filepath.Join(root, "submissions.csv"))
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	files, err := storage.NewFileStore(filepath.Join(root, "static"))
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	pipeline := style.NewPipeline(style.Options{Logger: zerolog.Nop()})
	return NewApp(zerolog.Nop(), queue.NewRegistry(store), queue.NewView(store), files, pipeline), store
}

func TestSubmitFinalEnqueues(t *testing.T) {
	app, store := newTestApp(t)

	body := `{"processed_file":"cat.png","anime_name":"Naruto","email":"a@x.com"}`
	req := httptest.NewRequest("POST", "/submit_final", strings.NewReader(body))
	rr := httptest.NewRecorder()
	app.SubmitFinal(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	var payload struct {
		Status string `json:"status"`
		ID     int64  `json:"id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "success" || payload.ID != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(records) != 1 || records[0].Stage != domain.StageQueued {
		t.Fatalf("unexpected ledger state: %+v", records)
	}
}

func TestSubmitFinalRejectsMissingData(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/submit_final", strings.NewReader(`{"anime_name":"Naruto"}`))
	rr := httptest.NewRecorder()
	app.SubmitFinal(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestSubmitFinalRejectsBadJSON(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/submit_final", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()
	app.SubmitFinal(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestHistoryReturnsRecentFlags(t *testing.T) {
	app, store := newTestApp(t)
	seed := make([]domain.Submission, 0, 7)
	for i := 1; i <= 7; i++ {
		stage := domain.StageQueued
		if i <= 3 {
			stage = domain.StageDelivered
		}
		seed = append(seed, domain.Submission{
			ID:            int64(i),
			ImageFilename: "cat.png",
			AnimeName:     "Naruto",
			Email:         "a@x.com",
			Stage:         stage,
			SubmittedAt:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.Local),
		})
	}
	if err := store.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/history", nil)
	rr := httptest.NewRecorder()
	app.History(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	var items []map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	if items[0]["id"].(float64) != 7 || items[4]["id"].(float64) != 3 {
		t.Fatalf("items not ordered id descending: %v", items)
	}
	if items[0]["build_status"] != "N" || items[0]["mail_status"] != "N" {
		t.Fatalf("unexpected flags for queued record: %v", items[0])
	}
	if items[4]["build_status"] != "Y" || items[4]["mail_status"] != "Y" {
		t.Fatalf("unexpected flags for delivered record: %v", items[4])
	}
}

func TestHistoryEmptyLedger(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/history", nil)
	rr := httptest.NewRecorder()
	app.History(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("expected empty array, got %q", body)
	}
}
