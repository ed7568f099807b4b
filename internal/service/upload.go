package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"carappx/internal/config"
)

// ImageHost uploads staged photos to the cloud image-hosting endpoint via
// multipart form upload and returns the resulting public URL.
type ImageHost struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

// NewImageHost creates an image host client.
func NewImageHost(cfg config.UploadConfig, log *zap.Logger) *ImageHost {
	return &ImageHost{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:     log,
	}
}

type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Upload reads the staged file and posts it as a multipart form. It returns
// the hosted public URL.
func (h *ImageHost) Upload(ctx context.Context, localURI string) (string, error) {
	file, err := os.Open(localURI)
	if err != nil {
		return "", fmt.Errorf("open staged photo: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filepath.Base(localURI))
	if err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy photo into form: %w", err)
	}
	if h.apiKey != "" {
		_ = writer.WriteField("key", h.apiKey)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.Data.URL == "" {
		return "", fmt.Errorf("upload response carried no url")
	}

	h.log.Debug("photo uploaded", zap.String("url", parsed.Data.URL))
	return parsed.Data.URL, nil
}
