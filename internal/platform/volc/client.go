package volc

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reelforge/reelforge-api/internal/config"
	"github.com/reelforge/reelforge-api/internal/generation"
)

// sensitiveCodes are the provider rejection codes that classify as
// recoverable content-policy blocks, eligible for a rewritten retry.
var sensitiveCodes = map[string]bool{
	"InputTextSensitiveContentDetected":   true,
	"InputImageSensitiveContentDetected":  true,
	"OutputImageSensitiveContentDetected": true,
	"OutputVideoSensitiveContentDetected": true,
	"SensitiveContentDetected":            true,
}

// errorEnvelope is the provider's structured error body.
type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client is the signed HTTP client shared by all media operations.
type Client struct {
	httpClient *http.Client
	accessKey  string
	secretKey  string
	baseURL    string
	mediaDir   string
	logger     *slog.Logger
}

// NewClient creates a media API client from configuration.
func NewClient(media config.MediaConfig, storage config.StorageConfig, logger *slog.Logger) (*Client, error) {
	if media.AccessKey == "" || media.SecretKey == "" {
		return nil, fmt.Errorf("%w: media access and secret keys cannot be empty",
			generation.ErrInvalidConfig)
	}
	if media.BaseURL == "" {
		return nil, fmt.Errorf("%w: media base URL cannot be empty",
			generation.ErrInvalidConfig)
	}

	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		accessKey:  media.AccessKey,
		secretKey:  media.SecretKey,
		baseURL:    strings.TrimRight(media.BaseURL, "/"),
		mediaDir:   storage.MediaDir,
		logger:     logger,
	}, nil
}

// sign computes the hex HMAC-SHA256 request signature over the method,
// path, timestamp and body.
func (c *Client) sign(method, path, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(method))
	mac.Write([]byte("\n"))
	mac.Write([]byte(path))
	mac.Write([]byte("\n"))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("\n"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// do issues one signed request and decodes a successful JSON response into
// out. Errors are classified: network faults and 5xx responses are
// transient, sensitive-content rejection codes are policy blocks, and
// everything else is a provider failure.
func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Access-Key", c.accessKey)
	req.Header.Set("X-Timestamp", timestamp)
	req.Header.Set("X-Signature", c.sign(method, path, timestamp, body))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", generation.ErrTransientFailure, err)
	}

	if resp.StatusCode != http.StatusOK {
		return c.classifyError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v",
				generation.ErrInvalidResponse, err)
		}
	}
	return nil
}

// classifyError maps a non-200 response to a typed error.
func (c *Client) classifyError(status int, body []byte) error {
	if status >= 500 {
		return fmt.Errorf("%w: provider returned %d", generation.ErrTransientFailure, status)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Code == "" {
		return fmt.Errorf("%w: provider returned %d: %s",
			generation.ErrProviderFailed, status, truncateBody(body))
	}

	if sensitiveCodes[envelope.Code] {
		return &generation.RejectionError{Code: envelope.Code, Message: envelope.Message}
	}

	return fmt.Errorf("%w: %s: %s", generation.ErrProviderFailed,
		envelope.Code, envelope.Message)
}

// classifyTerminalFailure maps a failure reported inside a 200 poll
// response to a typed error, applying the same sensitive-code rules.
func classifyTerminalFailure(code, message string) error {
	if sensitiveCodes[code] {
		return &generation.RejectionError{Code: code, Message: message}
	}
	if code == "" {
		return fmt.Errorf("%w: %s", generation.ErrProviderFailed, message)
	}
	return fmt.Errorf("%w: %s: %s", generation.ErrProviderFailed, code, message)
}

func truncateBody(body []byte) string {
	const limit = 256
	s := string(body)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
