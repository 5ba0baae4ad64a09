// Package rest talks to the marketplace upload endpoints.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veronicavalera/gritgirls/internal/photo/domain"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
)

const (
	uploadPath = "/api/uploads/image"
	deletePath = "/api/uploads/"

	defaultUploadError = "Upload failed"
)

var errEmptyFilename = errors.New("no filename in photo url")

// Client implements domain.PhotoStore against POST /api/uploads/image and
// DELETE /api/uploads/{filename}. It never retries.
type Client struct {
	apiBase string
	http    *http.Client
	log     *logger.Logger
	metrics *metrics.MetricsManager
}

func NewClient(apiBase string, httpClient *http.Client, log *logger.Logger, m *metrics.MetricsManager) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiBase: strings.TrimRight(apiBase, "/"),
		http:    httpClient,
		log:     log.Named("uploads"),
		metrics: m,
	}
}

type uploadResponse struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// Upload sends the file as the single multipart field "file".
func (c *Client) Upload(ctx context.Context, file domain.LocalFile, token string) (domain.UploadResult, error) {
	body, contentType, err := multipartBody(file)
	if err != nil {
		return domain.UploadResult{}, &domain.UploadError{Message: err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+uploadPath, body)
	if err != nil {
		return domain.UploadResult{}, &domain.UploadError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	c.authorize(req, token)

	resp, err := c.do(req, "upload")
	if err != nil {
		return domain.UploadResult{}, &domain.UploadError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	var payload uploadResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := payload.Error
		if msg == "" {
			msg = defaultUploadError
		}
		c.log.Warn("upload rejected by server",
			zap.String("name", file.Name), zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return domain.UploadResult{}, &domain.UploadError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil || payload.URL == "" {
		return domain.UploadResult{}, &domain.UploadError{
			StatusCode: resp.StatusCode,
			Message:    "upload response carried no url",
			Err:        decodeErr,
		}
	}

	c.log.Debug("upload accepted", zap.String("name", file.Name), zap.String("url", payload.URL))
	return domain.UploadResult{URL: payload.URL}, nil
}

// Delete removes the stored file named by the last path segment of url.
// The caller decides what a failure means; the attachment manager ignores it.
func (c *Client) Delete(ctx context.Context, photoURL string, token string) error {
	filename := domain.FilenameFromURL(photoURL)
	if filename == "" {
		return fmt.Errorf("delete %q: %w", photoURL, errEmptyFilename)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.apiBase+deletePath+url.PathEscape(filename), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	c.authorize(req, token)

	resp, err := c.do(req, "delete")
	if err != nil {
		return fmt.Errorf("delete %s: %w", filename, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("delete %s: server returned %d", filename, resp.StatusCode)
	}
	return nil
}

func (c *Client) authorize(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
}

func (c *Client) do(req *http.Request, method string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.APILatency.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.log.Warn("request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.String("request_id", req.Header.Get("X-Request-ID")),
			zap.Error(err))
		return nil, err
	}
	return resp, nil
}

func multipartBody(file domain.LocalFile) (io.Reader, string, error) {
	if file.Open == nil {
		return nil, "", fmt.Errorf("%s: no file handle", file.Name)
	}
	rc, err := file.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(file.Name)))
	h.Set("Content-Type", file.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, rc); err != nil {
		return nil, "", fmt.Errorf("read %s: %w", file.Name, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
