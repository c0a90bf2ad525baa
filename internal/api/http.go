// Package api implements the two server-facing channels: request/response
// commands over HTTP and push notifications over a persistent websocket.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Client issues command calls against the roombutler server.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewClient creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8000").
func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Request performs one call and returns the raw JSON response body. For GET,
// data is encoded as a query string; for every other method it is sent as a
// JSON body. The body is parsed unconditionally; a non-2xx status yields a
// ServerError that still carries the parsed body.
func (c *Client) Request(ctx context.Context, method, path string, data any) (json.RawMessage, error) {
	op := method + " " + path

	var body io.Reader
	target := c.baseURL + path
	if method == http.MethodGet {
		if q, ok := data.(url.Values); ok && len(q) > 0 {
			target += "?" + q.Encode()
		}
	} else if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, &ProtocolError{Op: op, Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debugw("command", "method", method, "path", path)
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	// The server always answers JSON; "null" stands in for an empty body.
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("null")
	}
	if !json.Valid(raw) {
		return nil, &ProtocolError{Op: op, Err: errInvalidJSON(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return json.RawMessage(raw), &ServerError{Op: op, StatusCode: resp.StatusCode, Body: raw}
	}
	return json.RawMessage(raw), nil
}

// ChangeRoom labels the device's current position with a room name.
func (c *Client) ChangeRoom(ctx context.Context, name, deviceID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/room", map[string]string{
		"name":     name,
		"deviceId": deviceID,
	})
	return err
}

// StartGathering begins data collection with the given action
// ("append" or "new").
func (c *Client) StartGathering(ctx context.Context, action, deviceID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/gathering", map[string]string{
		"action":   action,
		"deviceId": deviceID,
	})
	return err
}

// StopGathering ends data collection for the device.
func (c *Client) StopGathering(ctx context.Context, deviceID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/gathering", map[string]string{
		"action":   GatherStop,
		"deviceId": deviceID,
	})
	return err
}

// StartTraining kicks off a training run for the device.
func (c *Client) StartTraining(ctx context.Context, optimize bool, deviceID string) error {
	_, err := c.Request(ctx, http.MethodPost, "/api/training", map[string]any{
		"deviceId": deviceID,
		"optimize": optimize,
	})
	return err
}

// StopTraining aborts the running training, if any.
func (c *Client) StopTraining(ctx context.Context) error {
	_, err := c.Request(ctx, http.MethodDelete, "/api/training", nil)
	return err
}

// GetEntities fetches the full entity list.
func (c *Client) GetEntities(ctx context.Context) ([]Entity, error) {
	raw, err := c.Request(ctx, http.MethodGet, "/api/entities", nil)
	if err != nil {
		return nil, err
	}
	var entities []Entity
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, &ProtocolError{Op: "GET /api/entities", Err: err}
	}
	return entities, nil
}

type jsonError struct {
	snippet string
}

func errInvalidJSON(raw []byte) error {
	const max = 120
	s := string(raw)
	if len(s) > max {
		s = s[:max] + "..."
	}
	return &jsonError{snippet: s}
}

func (e *jsonError) Error() string {
	return "response is not valid JSON: " + e.snippet
}
