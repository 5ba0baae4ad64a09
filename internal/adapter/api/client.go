// Package api is the JSON client for the marketplace listing and auth
// endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	listingdomain "github.com/veronicavalera/gritgirls/internal/listing/domain"
	"github.com/veronicavalera/gritgirls/internal/platform/logger"
	"github.com/veronicavalera/gritgirls/internal/platform/metrics"
)

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
		log:     log.Named("api"),
		metrics: m,
	}
}

// doJSON sends body (if any) as JSON and decodes a 2xx answer into out.
// A non-2xx answer becomes a *listingdomain.APIError carrying the server's
// "error" field, or fallback when there is none.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.APILatency.WithLabelValues(strings.ToLower(method) + " " + routeLabel(path)).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.String("request_id", requestID), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		msg := e.Error
		if msg == "" {
			msg = fallback
		}
		c.log.Debug("request rejected", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return &listingdomain.APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// routeLabel collapses ids so metric labels stay bounded.
func routeLabel(path string) string {
	path, _, _ = strings.Cut(path, "?")
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p != "" && strings.Trim(p, "0123456789") == "" {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
