package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Errors
var (
	ErrNotFound    = errors.New("resource not found")
	ErrMissingETag = errors.New("storage response carried no ETag")
)

// StatusError is returned for any non-2xx backend or storage response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Client wraps the chat backend REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is used
// as is, without the logging wrapper.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a backend client. token is sent as a bearer credential
// on every backend call.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			// Bounds each call, one part PUT included.
			Timeout:   timeout,
			Transport: pkglog.Transport(logger, nil),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartUpload opens a multi-part transfer session.
func (c *Client) StartUpload(ctx context.Context, req domain.StartUploadRequest) (*domain.StartUploadResponse, error) {
	var resp domain.StartUploadResponse
	if err := c.postJSON(ctx, "/chat/upload/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PartURLs requests one signed destination per part number.
func (c *Client) PartURLs(ctx context.Context, req domain.PartURLsRequest) (*domain.PartURLsResponse, error) {
	var resp domain.PartURLsResponse
	if err := c.postJSON(ctx, "/chat/upload/parts", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteUpload finalizes a transfer and returns the durable file URL.
func (c *Client) CompleteUpload(ctx context.Context, req domain.CompleteUploadRequest) (*domain.CompleteUploadResponse, error) {
	var resp domain.CompleteUploadResponse
	if err := c.postJSON(ctx, "/chat/upload/complete", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadPart PUTs one part to its signed URL and returns the storage ETag.
// The signed URL is its own credential, so no bearer token is attached.
func (c *Client) UploadPart(ctx context.Context, signedURL string, body io.Reader, size int64, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, signedURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = size
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload part: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(req, resp)
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		c.logger.Debug().Err(err).Str("url", signedURL).Msg("failed to drain storage response")
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", ErrMissingETag
	}
	return etag, nil
}

// GetConversation fetches one conversation by room id.
func (c *Client) GetConversation(ctx context.Context, chatID string) (*domain.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(chatID), nil)
	if err != nil {
		return nil, err
	}

	var conv domain.Conversation
	if err := c.do(req, &conv); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &conv, nil
}

// SendMessage persists a message. The backend echoes tempId next to the
// newly assigned _id.
func (c *Client) SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.Message, error) {
	var msg domain.Message
	if err := c.postJSON(ctx, "/chat/message", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(req, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &StatusError{
		Method:     req.Method,
		URL:        req.URL.Host + req.URL.Path,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
