package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordedRequest struct {
	method  string
	path    string
	query   string
	accept  string
	ctype   string
	body    map[string]any
	hasBody bool
}

// newRecordingServer captures every request and answers with the given
// status and body.
func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			accept: r.Header.Get("Accept"),
			ctype:  r.Header.Get("Content-Type"),
		}
		if r.Body != nil {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				rec.body = body
				rec.hasBody = true
			}
		}
		requests = append(requests, rec)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(srv.URL, 5*time.Second, zap.NewNop().Sugar())
}

func TestRequest_SetsHeaders(t *testing.T) {
	srv, requests := newRecordingServer(t, http.StatusOK, `{}`)
	c := newTestClient(srv)

	if _, err := c.Request(context.Background(), http.MethodPost, "/api/room", map[string]string{"name": "A12"}); err != nil {
		t.Fatalf("request: %v", err)
	}

	req := (*requests)[0]
	if req.accept != "application/json" {
		t.Errorf("Accept: got %q", req.accept)
	}
	if req.ctype != "application/json" {
		t.Errorf("Content-Type: got %q", req.ctype)
	}
}

func TestRequest_GetHasNoBody(t *testing.T) {
	srv, requests := newRecordingServer(t, http.StatusOK, `[]`)
	c := newTestClient(srv)

	if _, err := c.Request(context.Background(), http.MethodGet, "/api/entities", nil); err != nil {
		t.Fatalf("request: %v", err)
	}

	req := (*requests)[0]
	if req.hasBody {
		t.Error("GET should not carry a body")
	}
	if req.ctype != "" {
		t.Errorf("GET should not set Content-Type, got %q", req.ctype)
	}
}

func TestRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // unreachable on purpose
	c := NewClient(srv.URL, time.Second, zap.NewNop().Sugar())

	_, err := c.Request(context.Background(), http.MethodGet, "/api/entities", nil)

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T (%v)", err, err)
	}
}

func TestRequest_ProtocolError(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, `<html>not json</html>`)
	c := newTestClient(srv)

	_, err := c.Request(context.Background(), http.MethodGet, "/api/entities", nil)

	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T (%v)", err, err)
	}
}

func TestRequest_ServerErrorKeepsBody(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusUnprocessableEntity, `{"detail":"Cols are different"}`)
	c := newTestClient(srv)

	body, err := c.Request(context.Background(), http.MethodPost, "/api/gathering", map[string]string{"action": "append"})

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %T (%v)", err, err)
	}
	if se.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status: got %d", se.StatusCode)
	}
	var parsed map[string]string
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("body should still parse: %v", err)
	}
	if parsed["detail"] != "Cols are different" {
		t.Errorf("body: got %v", parsed)
	}
}

func TestRequest_EmptyBodyIsNull(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK, ``)
	c := newTestClient(srv)

	raw, err := c.Request(context.Background(), http.MethodPost, "/api/room", map[string]string{"name": "A12"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if string(raw) != "null" {
		t.Errorf("expected null, got %s", raw)
	}
}

func TestNamedOperations_WireShapes(t *testing.T) {
	tests := []struct {
		name       string
		call       func(c *Client) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
	}{
		{
			name:       "ChangeRoom",
			call:       func(c *Client) error { return c.ChangeRoom(context.Background(), "bedroom", "dev-1") },
			wantMethod: http.MethodPost,
			wantPath:   "/api/room",
			wantBody:   map[string]any{"name": "bedroom", "deviceId": "dev-1"},
		},
		{
			name:       "StartGathering",
			call:       func(c *Client) error { return c.StartGathering(context.Background(), "new", "dev-1") },
			wantMethod: http.MethodPost,
			wantPath:   "/api/gathering",
			wantBody:   map[string]any{"action": "new", "deviceId": "dev-1"},
		},
		{
			name:       "StopGathering",
			call:       func(c *Client) error { return c.StopGathering(context.Background(), "dev-1") },
			wantMethod: http.MethodPost,
			wantPath:   "/api/gathering",
			wantBody:   map[string]any{"action": "stop", "deviceId": "dev-1"},
		},
		{
			name:       "StartTraining",
			call:       func(c *Client) error { return c.StartTraining(context.Background(), true, "dev-1") },
			wantMethod: http.MethodPost,
			wantPath:   "/api/training",
			wantBody:   map[string]any{"deviceId": "dev-1", "optimize": true},
		},
		{
			name:       "StopTraining",
			call:       func(c *Client) error { return c.StopTraining(context.Background()) },
			wantMethod: http.MethodDelete,
			wantPath:   "/api/training",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := newRecordingServer(t, http.StatusOK, `null`)
			c := newTestClient(srv)

			if err := tt.call(c); err != nil {
				t.Fatalf("call: %v", err)
			}

			req := (*requests)[0]
			if req.method != tt.wantMethod || req.path != tt.wantPath {
				t.Errorf("got %s %s, want %s %s", req.method, req.path, tt.wantMethod, tt.wantPath)
			}
			if tt.wantBody != nil {
				for k, v := range tt.wantBody {
					if req.body[k] != v {
						t.Errorf("body[%s]: got %v, want %v", k, req.body[k], v)
					}
				}
			}
		})
	}
}

func TestGetEntities_ParsesList(t *testing.T) {
	srv, _ := newRecordingServer(t, http.StatusOK,
		`[{"id":"dev-1","name":"Phone","measuredValues":{"kitchen":{"rssi":-60}}},{"id":"status-cluster-size","name":"Cluster"}]`)
	c := newTestClient(srv)

	entities, err := c.GetEntities(context.Background())
	if err != nil {
		t.Fatalf("get entities: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	if !entities[0].Selectable() {
		t.Error("dev-1 should be selectable")
	}
	if entities[1].Selectable() {
		t.Error("status entity should not be selectable")
	}
	if entities[0].MeasuredValues["kitchen"].RSSI != -60 {
		t.Errorf("rssi: got %v", entities[0].MeasuredValues["kitchen"].RSSI)
	}
}

func TestEntity_SelectableWithEmptyMeasuredValues(t *testing.T) {
	// An empty measuredValues object still marks a device; only the absent
	// field does not.
	var entities []Entity
	if err := json.Unmarshal([]byte(`[{"id":"1","name":"A"},{"id":"2","name":"B","measuredValues":{}}]`), &entities); err != nil {
		t.Fatal(err)
	}
	if entities[0].Selectable() {
		t.Error("A has no measuredValues and should not be selectable")
	}
	if !entities[1].Selectable() {
		t.Error("B has measuredValues (empty) and should be selectable")
	}
}
