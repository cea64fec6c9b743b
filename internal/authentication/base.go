package authentication

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Version is reported in the Auth0-Client telemetry header.
const Version = "0.1.0"

// Transport performs the HTTP exchange for an authentication endpoint.
// It returns the parsed response body, or an error for non-2xx responses.
type Transport interface {
	Post(ctx context.Context, url string, data map[string]interface{}) (interface{}, error)
}

// Base is the default Transport. It sends JSON bodies and parses JSON responses.
type Base struct {
	client  *http.Client
	headers http.Header
	logger  zerolog.Logger
}

// NewBase creates a new Base transport.
func NewBase(options ...Option) *Base {
	cfg := getConfig(options...)
	return newBase(cfg)
}

func newBase(cfg *config) *Base {
	client := cfg.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if cfg.telemetry {
		headers.Set("User-Agent", "Go/"+runtime.Version())
		headers.Set("Auth0-Client", telemetryHeader())
	}
	return &Base{client: client, headers: headers, logger: cfg.logger}
}

func telemetryHeader() string {
	info, _ := json.Marshal(map[string]interface{}{
		"name":    "auth0-db-go",
		"version": Version,
		"env":     map[string]string{"go": runtime.Version()},
	})
	return base64.StdEncoding.EncodeToString(info)
}

// Post sends data as JSON to url.
func (b *Base) Post(ctx context.Context, url string, data map[string]interface{}) (interface{}, error) {
	buf := bytes.NewBuffer(nil)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, fmt.Errorf("post: %w", err)
	}
	for k, v := range b.headers {
		req.Header[k] = v
	}

	path := metricPath(url)
	startTime := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		requestDuration.WithLabelValues(path, "error").Observe(time.Since(startTime).Seconds())
		return nil, fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	requestDuration.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Observe(time.Since(startTime).Seconds())

	b.logger.Debug().Str("url", url).Int("status", resp.StatusCode).Msg("auth request")
	return processResponse(resp)
}

func processResponse(resp *http.Response) (interface{}, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	content := parseBody(body)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return content, nil
	}
	authErr := newAuth0Error(resp.StatusCode, body, content)
	if resp.StatusCode == http.StatusTooManyRequests {
		resetAt, err := strconv.ParseInt(resp.Header.Get("x-ratelimit-reset"), 10, 64)
		if err != nil {
			resetAt = -1
		}
		return nil, &RateLimitError{Auth0Error: *authErr, ResetAt: resetAt}
	}
	return nil, authErr
}

// parseBody decodes JSON bodies and falls back to the raw text.
func parseBody(body []byte) interface{} {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

func metricPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	return u.Path
}
