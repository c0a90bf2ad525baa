// Package session owns the one DeviceSession per client: the selected
// device and the gathering/training operation slots. It is the only place
// that mutates session state; the presentation layer observes it purely
// through bus events.
package session

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/jacopomaroli/roombutler/internal/api"
	"github.com/jacopomaroli/roombutler/internal/bus"
)

// Commander is the command channel surface the session needs. *api.Client
// implements it.
type Commander interface {
	ChangeRoom(ctx context.Context, name, deviceID string) error
	StartGathering(ctx context.Context, action, deviceID string) error
	StopGathering(ctx context.Context, deviceID string) error
	StartTraining(ctx context.Context, optimize bool, deviceID string) error
	StopTraining(ctx context.Context) error
	GetEntities(ctx context.Context) ([]api.Entity, error)
}

// RoomChange is the payload of the derived "roomChanged" event.
type RoomChange struct {
	Room string
	Node string
}

// Session consumes push events and command results and keeps the device
// session consistent. Push handlers run on the push channel's goroutine and
// toggles on the caller's, so all state lives behind one mutex.
type Session struct {
	cmd    Commander
	bus    *bus.Bus
	logger *zap.SugaredLogger

	mu        sync.Mutex
	deviceID  string
	room      string
	node      string
	gathering toggle
	training  toggle

	subs []bus.Subscription
}

func New(cmd Commander, b *bus.Bus, logger *zap.SugaredLogger) *Session {
	s := &Session{
		cmd:    cmd,
		bus:    b,
		logger: logger,
	}
	s.subs = []bus.Subscription{
		b.Subscribe(bus.EventPong, s.onPong),
		b.Subscribe(bus.EventRoom, s.onRoom),
		b.Subscribe(bus.EventTraining, s.onTraining),
	}
	return s
}

// Close detaches the session from the bus.
func (s *Session) Close() {
	for _, sub := range s.subs {
		s.bus.Unsubscribe(sub)
	}
	s.subs = nil
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() DeviceSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DeviceSession{
		SelectedDeviceID: s.deviceID,
		Gathering:        s.gathering.state,
		Training:         s.training.state,
		Room:             s.room,
		Node:             s.node,
	}
}

// SelectDevice sets the selected device. No network call; selecting the
// same device again changes nothing.
func (s *Session) SelectDevice(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceID = id
}

// LoadEntities fetches the entity list and publishes "entitiesLoaded" with
// the selectable devices only.
func (s *Session) LoadEntities(ctx context.Context) error {
	entities, err := s.cmd.GetEntities(ctx)
	if err != nil {
		return err
	}
	devices := make([]api.Entity, 0, len(entities))
	for _, e := range entities {
		if e.Selectable() {
			devices = append(devices, e)
		}
	}
	s.bus.Publish(bus.EventEntitiesLoaded, devices)
	return nil
}

// ChangeRoom labels the device's position. Local state is not touched: the
// authoritative room value arrives via the "room" push.
func (s *Session) ChangeRoom(ctx context.Context, name string) error {
	s.mu.Lock()
	deviceID := s.deviceID
	s.mu.Unlock()
	if deviceID == "" {
		return &PreconditionError{Op: "change room", Reason: "no device selected"}
	}
	return s.cmd.ChangeRoom(ctx, name, deviceID)
}

// ToggleGathering flips the gathering slot: Idle starts collection with the
// given mode ("append" or "new"), Active stops it. While the command is in
// flight the slot is Pending and further toggles are rejected.
func (s *Session) ToggleGathering(ctx context.Context, mode string) error {
	starting, deviceID, err := s.begin(&s.gathering, "toggle gathering")
	if err != nil {
		return err
	}

	var cmdErr error
	if starting {
		cmdErr = s.cmd.StartGathering(ctx, mode, deviceID)
	} else {
		cmdErr = s.cmd.StopGathering(ctx, deviceID)
	}
	return s.settle(&s.gathering, starting, cmdErr, bus.EventGatheringToggled)
}

// ToggleTraining mirrors ToggleGathering on the training slot. The two
// slots are fully independent: training's branch decision reads training
// state, never gathering's.
func (s *Session) ToggleTraining(ctx context.Context, optimize bool) error {
	starting, deviceID, err := s.begin(&s.training, "toggle training")
	if err != nil {
		return err
	}

	var cmdErr error
	if starting {
		cmdErr = s.cmd.StartTraining(ctx, optimize, deviceID)
	} else {
		cmdErr = s.cmd.StopTraining(ctx)
	}
	return s.settle(&s.training, starting, cmdErr, bus.EventTrainingToggled)
}

// begin guards and enters the Pending state. It must be paired with settle
// on every path, or the slot locks up for good.
func (s *Session) begin(t *toggle, op string) (starting bool, deviceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.state == Pending {
		return false, "", &BusyError{Op: op}
	}
	if s.deviceID == "" && t.state == Idle {
		return false, "", &PreconditionError{Op: op, Reason: "no device selected"}
	}
	t.prev = t.state
	starting = t.state == Idle
	t.state = Pending
	return starting, s.deviceID, nil
}

// settle resolves a Pending slot from the command result and publishes the
// toggle event, reverted or not, so the views can reset their controls. If
// a push event already settled the slot while the command was in flight the
// server's verdict stands.
func (s *Session) settle(t *toggle, starting bool, cmdErr error, event string) error {
	s.mu.Lock()
	if t.state != Pending {
		s.mu.Unlock()
		return cmdErr
	}
	switch {
	case cmdErr != nil:
		t.state = t.prev
	case starting:
		t.state = Active
	default:
		t.state = Idle
	}
	active := t.state == Active
	s.mu.Unlock()

	s.bus.Publish(event, active)
	return cmdErr
}

func (s *Session) onPong(args ...any) error {
	s.logger.Debug("pong")
	return nil
}

// onRoom applies a room push if it concerns the selected device and
// republishes it as "roomChanged" for the views.
func (s *Session) onRoom(args ...any) error {
	var update api.RoomUpdate
	if !decodePayload(args, &update, s.logger, "room") {
		return nil
	}

	s.mu.Lock()
	if update.DeviceID != s.deviceID {
		s.mu.Unlock()
		s.logger.Debugw("room push for unselected device ignored", "deviceId", update.DeviceID)
		return nil
	}
	s.room = update.Room
	s.node = update.Node
	s.mu.Unlock()

	s.bus.Publish(bus.EventRoomChanged, RoomChange{Room: update.Room, Node: update.Node})
	return nil
}

// onTraining relays training lifecycle pushes. A "finished" push forces the
// training slot to Idle even while a toggle command is pending: training can
// complete on its own, and the server is authoritative.
func (s *Session) onTraining(args ...any) error {
	var update api.TrainingUpdate
	if !decodePayload(args, &update, s.logger, "training") {
		return nil
	}

	switch update.State {
	case api.TrainingStarted:
		s.bus.Publish(bus.EventTrainingStarted)
	case api.TrainingFinished:
		s.mu.Lock()
		s.training.state = Idle
		s.mu.Unlock()
		s.bus.Publish(bus.EventTrainingFinished, NormalizeStats(update.Stats))
	default:
		s.logger.Debugw("unknown training state", "state", update.State)
	}
	return nil
}

// NormalizeStats replaces absent or null stat values with the "N/A"
// sentinel, leaving present numbers untouched.
func NormalizeStats(stats map[string]*float64) map[string]any {
	out := make(map[string]any, len(stats))
	for k, v := range stats {
		if v == nil {
			out[k] = "N/A"
		} else {
			out[k] = *v
		}
	}
	return out
}

// decodePayload extracts the raw push payload from bus args. Malformed
// payloads are dropped for that message only.
func decodePayload(args []any, out any, logger *zap.SugaredLogger, kind string) bool {
	if len(args) == 0 {
		return false
	}
	raw, ok := args[0].(json.RawMessage)
	if !ok {
		logger.Debugw("unexpected push payload type", "kind", kind)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Debugw("dropping malformed push payload", "kind", kind, "err", err)
		return false
	}
	return true
}
