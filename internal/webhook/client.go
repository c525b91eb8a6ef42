package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request describes one document analysis dispatched to the external workflow engine.
type Request struct {
	DocumentID string `json:"document_id"`
	FileURL    string `json:"file_url"`
	FileName   string `json:"file_name"`
	AIModel    string `json:"ai_model"`
	Template   string `json:"template"`
}

// Result is the canonical shape every upstream response is normalized into.
type Result struct {
	Output string `json:"output"`
}

// Client posts analysis requests to the configured webhook endpoint.
// The upstream contract is loose: responses may be a JSON object carrying an
// output field, some other JSON, or plain text. All of them are normalized
// into Result before anything is persisted.
type Client struct {
	url            string
	retryTransient bool
	httpClient     *http.Client
	logger         *zap.Logger
}

// New builds a webhook client with an enforced request deadline.
func New(url string, timeout time.Duration, retryTransient bool, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:            strings.TrimRight(url, "/"),
		retryTransient: retryTransient,
		httpClient:     &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// Analyze sends the request and returns the normalized result. Transport
// failures are retried at most once; HTTP-level errors never are.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode analysis request: %w", err)
	}

	resp, err := c.post(ctx, payload)
	if err != nil && c.retryTransient {
		c.logger.Warn("analysis dispatch failed, retrying once",
			zap.String("document_id", req.DocumentID), zap.Error(err))
		resp, err = c.post(ctx, payload)
	}
	if err != nil {
		return nil, fmt.Errorf("call analysis webhook: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analysis webhook returned status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	result := normalize(resp.Header.Get("Content-Type"), body)
	if result.Output == "" {
		return nil, fmt.Errorf("analysis webhook returned an empty result")
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, payload []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.httpClient.Do(httpReq)
}

// normalize collapses the loosely specified upstream response into Result.
func normalize(contentType string, body []byte) *Result {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Result{}
	}

	if strings.Contains(contentType, "application/json") || looksLikeJSON(trimmed) {
		var envelope struct {
			Output json.RawMessage `json:"output"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Output) > 0 {
			var text string
			if err := json.Unmarshal(envelope.Output, &text); err == nil {
				return &Result{Output: text}
			}
			return &Result{Output: string(envelope.Output)}
		}
	}

	return &Result{Output: string(trimmed)}
}

func looksLikeJSON(body []byte) bool {
	return len(body) > 0 && (body[0] == '{' || body[0] == '[')
}

func truncate(body []byte, limit int) string {
	s := string(bytes.TrimSpace(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
