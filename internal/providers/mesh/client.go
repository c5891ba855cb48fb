// Package mesh talks to the external image-to-3D service that turns a
// processed PNG into a printable mesh artifact.
package mesh

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the mesh client is configured.
type Options struct {
	// BaseURL of the conversion service. When empty the client emits a
	// deterministic placeholder mesh instead of calling out, which keeps the
	// worker fully operational in local and CI environments.
	BaseURL      string
	HTTPClient   *http.Client
	ProcessedDir string
	MeshDir      string
	Logger       zerolog.Logger
}

// Client builds mesh artifacts from processed images. Conversion is slow;
// the HTTP client carries a generous timeout and callers should pass a
// context if they need a tighter bound.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	processedDir string
	meshDir      string
	logger       zerolog.Logger
}

// NewClient validates the directory layout and returns a ready client.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.ProcessedDir) == "" || strings.TrimSpace(opts.MeshDir) == "" {
		return nil, errors.New("mesh: processed and mesh directories are required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	if err := os.MkdirAll(opts.MeshDir, 0o755); err != nil {
		return nil, fmt.Errorf("mesh: ensure mesh directory: %w", err)
	}
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient:   httpClient,
		processedDir: opts.ProcessedDir,
		meshDir:      opts.MeshDir,
		logger:       opts.Logger,
	}, nil
}

// BuildMesh converts the named processed image into an STL artifact and
// returns the artifact path. The artifact keeps the image's base name.
func (c *Client) BuildMesh(ctx context.Context, imageFilename string) (string, error) {
	imageFilename = filepath.Base(strings.TrimSpace(imageFilename))
	if imageFilename == "" || imageFilename == "." {
		return "", errors.New("mesh: image filename is required")
	}
	inputPath := filepath.Join(c.processedDir, imageFilename)
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return "", fmt.Errorf("mesh: read source image: %w", err)
	}

	outPath := c.ArtifactPath(imageFilename)

	var stl []byte
	if c.baseURL == "" {
		c.logger.Warn().Str("image", imageFilename).Msg("mesh: no service configured, emitting placeholder mesh")
		stl = placeholderSTL(strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename)))
	} else {
		stl, err = c.convert(ctx, imageFilename, data)
		if err != nil {
			return "", err
		}
	}

	if err := os.WriteFile(outPath, stl, 0o644); err != nil {
		return "", fmt.Errorf("mesh: write artifact: %w", err)
	}
	return outPath, nil
}

// ArtifactPath reports where BuildMesh places the artifact for the given
// image: same base name under the mesh directory, .stl extension.
func (c *Client) ArtifactPath(imageFilename string) string {
	imageFilename = filepath.Base(strings.TrimSpace(imageFilename))
	stem := strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename))
	return filepath.Join(c.meshDir, stem+".stl")
}

func (c *Client) convert(ctx context.Context, filename string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("mesh: build request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("mesh: build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("mesh: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/convert", &body)
	if err != nil {
		return nil, fmt.Errorf("mesh: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mesh: call conversion service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mesh: conversion service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	stl, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mesh: read conversion response: %w", err)
	}
	if len(stl) == 0 {
		return nil, errors.New("mesh: conversion service returned an empty artifact")
	}
	return stl, nil
}

// placeholderSTL renders a unit cube in binary STL format so downstream
// delivery can be exercised without the conversion service.
func placeholderSTL(label string) []byte {
	var buf bytes.Buffer

	header := make([]byte, 80)
	copy(header, "placeholder mesh: "+label)
	buf.Write(header)

	// 6 faces, 2 triangles each.
	v := [8][3]float32{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	faces := [12][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{1, 2, 6}, {1, 6, 5}, // right
		{2, 3, 7}, {2, 7, 6}, // back
		{3, 0, 4}, {3, 4, 7}, // left
	}

	binary.Write(&buf, binary.LittleEndian, uint32(len(faces)))
	for _, f := range faces {
		binary.Write(&buf, binary.LittleEndian, [3]float32{}) // normal, recomputed by viewers
		for _, idx := range f {
			binary.Write(&buf, binary.LittleEndian, v[idx])
		}
		binary.Write(&buf, binary.LittleEndian, uint16(0))
	}
	return buf.Bytes()
}
