// Package mockserver is a development stand-in for the roombutler backend:
// the REST command surface, the /ws push endpoint and a scripted device
// walker, so the TUI can be exercised without a room-assistant deployment.
package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jacopomaroli/roombutler/internal/api"
)

type deviceState struct {
	entity    api.Entity
	gathering bool
	room      string
}

type trainingRun struct {
	deviceID string
	optimize bool
	timer    *time.Timer
}

type Server struct {
	logger *zap.SugaredLogger
	hub    *Hub

	mu       sync.Mutex
	devices  map[string]*deviceState
	order    []string
	extras   []api.Entity
	training *trainingRun

	// trainingDelay is how long a fake run takes. Tests shrink it.
	trainingDelay time.Duration
}

func NewServer(logger *zap.SugaredLogger) *Server {
	s := &Server{
		logger:        logger,
		hub:           NewHub(logger),
		devices:       make(map[string]*deviceState),
		trainingDelay: 5 * time.Second,
	}

	for _, name := range []string{"Pixel Phone", "Galaxy Watch", "Tile Tracker"} {
		e := api.Entity{
			ID:   "ble-" + uuid.NewString()[:8],
			Name: name,
			MeasuredValues: map[string]api.MeasuredValue{
				"kitchen":     {RSSI: -58},
				"bedroom":     {RSSI: -71},
				"living-room": {RSSI: -64},
			},
		}
		s.devices[e.ID] = &deviceState{entity: e}
		s.order = append(s.order, e.ID)
	}

	// Entities without measured values, as the real entity list carries.
	s.extras = []api.Entity{
		{ID: "status-cluster-size", Name: "Cluster size"},
		{ID: "status-cluster-leader", Name: "Cluster leader"},
	}

	return s
}

// Hub exposes the push hub, mainly for the generator.
func (s *Server) Hub() *Hub { return s.hub }

// DeviceIDs returns the device ids in creation order.
func (s *Server) DeviceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/entities", s.handleEntities).Methods(http.MethodGet)
	r.HandleFunc("/api/room", s.handleRoom).Methods(http.MethodPost)
	r.HandleFunc("/api/gathering", s.handleGathering).Methods(http.MethodPost)
	r.HandleFunc("/api/training", s.handleStartTraining).Methods(http.MethodPost)
	r.HandleFunc("/api/training", s.handleStopTraining).Methods(http.MethodDelete)
	r.HandleFunc("/ws", s.handleWS)
	return r
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	entities := make([]api.Entity, 0, len(s.order)+len(s.extras))
	for _, id := range s.order {
		entities = append(entities, s.devices[id].entity)
	}
	entities = append(entities, s.extras...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handleRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.mu.Lock()
	if d, ok := s.devices[body.DeviceID]; ok {
		d.room = body.Name
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGathering(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action   string `json:"action"`
		DeviceID string `json:"deviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	switch body.Action {
	case api.GatherAppend, api.GatherNew, api.GatherStop:
	default:
		writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown action %q", body.Action))
		return
	}

	s.mu.Lock()
	if d, ok := s.devices[body.DeviceID]; ok {
		d.gathering = body.Action != api.GatherStop
	}
	s.mu.Unlock()

	s.logger.Infow("gathering", "action", body.Action, "deviceId", body.DeviceID)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleStartTraining(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID string `json:"deviceId"`
		Optimize bool   `json:"optimize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	s.startTraining(body.DeviceID, body.Optimize)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleStopTraining(w http.ResponseWriter, r *http.Request) {
	s.finishTraining()
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("ws upgrade failed", "err", err)
		return
	}

	s.logger.Infow("ws client connected", "addr", r.RemoteAddr)
	c := s.hub.Add(conn)

	go func() {
		defer func() {
			s.hub.Remove(c)
			s.logger.Infow("ws client disconnected", "addr", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg api.PushMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type == "ping" {
				s.hub.Send(c, message{Type: "pong"})
			}
		}
	}()
}

// startTraining broadcasts "started" and schedules the "finished" push. Only
// one run at a time; a second start replaces the scheduled finish.
func (s *Server) startTraining(deviceID string, optimize bool) {
	s.mu.Lock()
	if s.training != nil && s.training.timer != nil {
		s.training.timer.Stop()
	}
	run := &trainingRun{deviceID: deviceID, optimize: optimize}
	run.timer = time.AfterFunc(s.trainingDelay, s.finishTraining)
	s.training = run
	s.mu.Unlock()

	s.logger.Infow("training started", "deviceId", deviceID, "optimize", optimize)
	s.hub.Broadcast(message{Type: "training", Payload: map[string]any{
		"state":    api.TrainingStarted,
		"deviceId": deviceID,
	}})
}

// finishTraining ends the active run, broadcasting "finished" with stats.
// The recall stat stays null for non-optimized runs, which exercises the
// client's N/A handling.
func (s *Server) finishTraining() {
	s.mu.Lock()
	run := s.training
	s.training = nil
	s.mu.Unlock()
	if run == nil {
		return
	}
	run.timer.Stop()

	accuracy, precision := 0.87, 0.83
	var recall any
	if run.optimize {
		accuracy, precision = 0.93, 0.9
		recall = 0.91
	}

	s.logger.Infow("training finished", "deviceId", run.deviceID)
	s.hub.Broadcast(message{Type: "training", Payload: map[string]any{
		"state":    api.TrainingFinished,
		"deviceId": run.deviceID,
		"stats": map[string]any{
			"accuracy":  accuracy,
			"precision": precision,
			"recall":    recall,
		},
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// ListenAndServe runs the mock server on the given address.
func ListenAndServe(addr string, s *Server) error {
	s.logger.Infow("mock server listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}
