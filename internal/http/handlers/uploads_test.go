package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chibichitra/internal/storage"
)

func multipartUpload(t *testing.T, filename string, data []byte, animeName string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if animeName != "" {
		if err := mw.WriteField("anime_name", animeName); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, mw.FormDataContentType()
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 32, 32))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploadAndPreviewStoresBothAssets(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartUpload(t, "cat.png", testPNG(t), "Naruto")
	req := httptest.NewRequest("POST", "/upload_and_preview", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	app.UploadAndPreview(rr, req)

	if rr.Code != 200 {
		t.Fatalf("unexpected status code: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var payload struct {
		Status        string `json:"status"`
		OriginalFile  string `json:"original_file"`
		ProcessedFile string `json:"processed_file"`
		AnimeName     string `json:"anime_name"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Status != "success" || payload.AnimeName != "Naruto" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if !strings.HasSuffix(payload.OriginalFile, "_cat.png") {
		t.Fatalf("original filename should keep its base name: %q", payload.OriginalFile)
	}
	if !strings.HasSuffix(payload.ProcessedFile, ".png") {
		t.Fatalf("processed file should be PNG: %q", payload.ProcessedFile)
	}

	uploaded := filepath.Join(app.Files.Dir(storage.DirUploads), payload.OriginalFile)
	if _, err := os.Stat(uploaded); err != nil {
		t.Fatalf("original was not stored: %v", err)
	}
	processed := filepath.Join(app.Files.Dir(storage.DirProcessed), payload.ProcessedFile)
	raw, err := os.ReadFile(processed)
	if err != nil {
		t.Fatalf("preview was not stored: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("stored preview is not PNG: %v", err)
	}
}

func TestUploadAndPreviewDistinctNamesForSameFilename(t *testing.T) {
	app, _ := newTestApp(t)
	names := map[string]bool{}

	for i := 0; i < 2; i++ {
		body, contentType := multipartUpload(t, "cat.png", testPNG(t), "Naruto")
		req := httptest.NewRequest("POST", "/upload_and_preview", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		app.UploadAndPreview(rr, req)
		if rr.Code != 200 {
			t.Fatalf("unexpected status code: %d", rr.Code)
		}
		var payload struct {
			ProcessedFile string `json:"processed_file"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		names[payload.ProcessedFile] = true
	}
	if len(names) != 2 {
		t.Fatalf("same-named uploads must not collide: %v", names)
	}
}

func TestUploadAndPreviewMissingFile(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartUpload(t, "", nil, "Naruto")
	req := httptest.NewRequest("POST", "/upload_and_preview", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	app.UploadAndPreview(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestUploadAndPreviewMissingAnimeName(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartUpload(t, "cat.png", testPNG(t), "")
	req := httptest.NewRequest("POST", "/upload_and_preview", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	app.UploadAndPreview(rr, req)

	if rr.Code != 400 {
		t.Fatalf("unexpected status code: got %d, want 400", rr.Code)
	}
}

func TestUploadAndPreviewRejectsNonImage(t *testing.T) {
	app, _ := newTestApp(t)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"), "Naruto")
	req := httptest.NewRequest("POST", "/upload_and_preview", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	app.UploadAndPreview(rr, req)

	if rr.Code != 500 {
		t.Fatalf("unexpected status code: got %d, want 500", rr.Code)
	}
}
