// Package imagestore is the HTTP gateway to the external image-storage
// service holding the binary image data.
package imagestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// privateTokenHeader authenticates this service to the image store. It is a
// service-level credential, never the end user's bearer token.
const privateTokenHeader = "PRIVATE-TOKEN"

// ErrUpstream is returned for any non-2xx response from the image store.
var ErrUpstream = errors.New("image store request rejected")

// Gateway performs create, update, and delete calls against the remote image
// store.
type Gateway interface {
	Create(ctx context.Context, req CreateRequest) (Resource, error)
	Update(ctx context.Context, id string, req CreateRequest) error
	Delete(ctx context.Context, id string) error
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL string
	token   string
	logger  *slog.Logger
	http    *http.Client
}

// NewClient builds an image store client. timeout bounds each remote call;
// it defaults to 15 seconds when non-positive.
func NewClient(log *slog.Logger, baseURL, token string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  log.With(slog.String("client", "imagestore")),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Create uploads a new image and returns the resource the remote service
// assigned, including its id and public URL.
func (c *Client) Create(ctx context.Context, req CreateRequest) (Resource, error) {
	body, err := c.do(ctx, http.MethodPost, "/images", &req)
	if err != nil {
		return Resource{}, err
	}
	var resource Resource
	if err := json.Unmarshal(body, &resource); err != nil {
		return Resource{}, fmt.Errorf("decode image store response: %w", err)
	}
	if resource.ID == "" {
		return Resource{}, fmt.Errorf("image store returned no id")
	}
	return resource, nil
}

// Update replaces the binary payload of an existing remote image.
func (c *Client) Update(ctx context.Context, id string, req CreateRequest) error {
	_, err := c.do(ctx, http.MethodPut, "/images/"+id, &req)
	return err
}

// Delete removes the remote image.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/images/"+id, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload *CreateRequest) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set(privateTokenHeader, c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image store %s %s: %w", method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("image store: close response body failed", slog.Any("error", err))
		}
	}()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("image store call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %s %s returned %d", ErrUpstream, method, path, resp.StatusCode)
	}
	return body, nil
}
