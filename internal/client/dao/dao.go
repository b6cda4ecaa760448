// Package dao contains the remote access objects for the NebulaRun backend.
// Each DAO wraps one REST resource of a PostgREST-style API and decodes
// responses into typed records. DAOs are stateless apart from the shared
// Client (base URL, API key, HTTP client) and never touch the filesystem.
//
// Failure taxonomy, surfaced as a single error return: transport failures
// wrap common.ErrOffline, non-2xx statuses become *StatusError (carrying the
// numeric status and server body, matching common.ErrUnauthorized for 401),
// and undecodable bodies wrap common.ErrDecode. No panic crosses the DAO
// boundary.
package dao

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/nebularun/internal/common"
	"github.com/dmitrijs2005/nebularun/internal/logging"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Is lets a 401 response match common.ErrUnauthorized through errors.Is
// without losing the concrete *StatusError.
func (e *StatusError) Is(target error) bool {
	return target == common.ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// Client is the shared REST transport for all DAOs. It is safe to share: it
// holds only the base URL, the API key and an http.Client with a fixed
// request timeout. There is no retry at this layer; retry, where it exists,
// is a later whole-sync re-invocation.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logging.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, log logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// do performs one request. token may be empty for anonymous endpoints, body
// and out may be nil, prefer sets the Prefer header when non-empty.
func (c *Client) do(ctx context.Context, method, path, token string, body any, prefer string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set(common.APIKeyHeaderName, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	c.log.Debug(ctx, "backend request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDecode, err)
		}
	}
	return nil
}
