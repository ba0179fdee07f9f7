package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"shortlink.local/internal/platform/metrics"
)

// 请求
type CreateRequest struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
}

// 响应。expires_at 可能为 null（服务端没有存过期时间）。
type CreateResponse struct {
	ShortURL    string  `json:"short_url"`
	OriginalURL string  `json:"original_url"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   *string `json:"expires_at"`
}

// Stats 对应 GET /api/stats/{code}。
type Stats struct {
	ID          int64      `json:"id"`
	OriginalURL string     `json:"original_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	AccessCount int64      `json:"access_count"`
}

type errorBody struct {
	Error string `json:"error"`
}

// StatusError 是服务端返回的非 2xx 响应。Message 可能为空。
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shortening service: status %d", e.StatusCode)
	}
	return fmt.Sprintf("shortening service: status %d: %s", e.StatusCode, e.Message)
}

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

// New 创建服务端客户端。Transport 包了一层 otelhttp，开启追踪时每次请求都有 span。
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Create 发起一次创建请求，不重试。
func (c *Client) Create(ctx context.Context, req CreateRequest) (CreateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return CreateResponse{}, fmt.Errorf("marshal request: %w", err)
	}
	var out CreateResponse
	if err := c.do(ctx, "create", http.MethodPost, c.baseURL+"/api/shorten", body, &out); err != nil {
		return CreateResponse{}, err
	}
	return out, nil
}

func (c *Client) Stats(ctx context.Context, code string) (Stats, error) {
	var out Stats
	endpoint := c.baseURL + "/api/stats/" + url.PathEscape(code)
	if err := c.do(ctx, "stats", http.MethodGet, endpoint, nil, &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ClientRequestDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ClientRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ClientRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Header.Get("Content-Type"), respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// errorMessage 优先取 JSON 里的 error 字段；服务端直接回纯文本时取正文。
func errorMessage(contentType string, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		return strings.TrimSpace(eb.Error)
	}
	if strings.HasPrefix(contentType, "text/plain") {
		msg := strings.TrimSpace(string(body))
		if len(msg) <= 200 {
			return msg
		}
	}
	return ""
}

// IsStatus 判断 err 是否为指定状态码的 StatusError。
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
