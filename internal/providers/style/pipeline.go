// Package style produces the stylized preview shown after upload. Background
// removal is delegated to an external service; when none is configured the
// pipeline falls back to local normalization so the flow stays usable.
package style

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
)

// maxPreviewEdge bounds the preview so huge uploads do not balloon the
// processed directory.
const maxPreviewEdge = 1024

// Options configures the pipeline.
type Options struct {
	// BaseURL of the background-removal service (rembg-style HTTP API).
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Pipeline turns an uploaded photo into the processed PNG that later feeds
// the mesh build.
type Pipeline struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewPipeline constructs the preview pipeline.
func NewPipeline(opts Options) *Pipeline {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Pipeline{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// Render returns the processed preview as PNG bytes. animeName rides along
// to the external service as the style hint.
func (p *Pipeline) Render(ctx context.Context, filename string, data []byte, animeName string) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("style: empty image")
	}
	if p.baseURL == "" {
		return p.normalize(data)
	}
	out, err := p.remove(ctx, filename, data, animeName)
	if err != nil {
		p.logger.Warn().Err(err).Str("image", filename).Msg("style: service failed, falling back to local normalization")
		return p.normalize(data)
	}
	return out, nil
}

func (p *Pipeline) remove(ctx context.Context, filename string, data []byte, animeName string) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("style: build request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("style: build request: %w", err)
	}
	if animeName != "" {
		if err := mw.WriteField("style", animeName); err != nil {
			return nil, fmt.Errorf("style: build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("style: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/remove", &body)
	if err != nil {
		return nil, fmt.Errorf("style: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("style: call service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("style: service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("style: read response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("style: service returned an empty image")
	}
	return out, nil
}

// normalize decodes the upload, fixes orientation, bounds its size and
// re-encodes as PNG.
func (p *Pipeline) normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("style: decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() > maxPreviewEdge || bounds.Dy() > maxPreviewEdge {
		img = imaging.Fit(img, maxPreviewEdge, maxPreviewEdge, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("style: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
